package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/XavierBriggs/Argus/pkg/contracts"
)

// SportRegistry manages registered sport modules and their aliases
type SportRegistry struct {
	sports  map[string]contracts.SportModule
	aliases map[string]string
	mu      sync.RWMutex
}

// NewSportRegistry creates a new sport registry
func NewSportRegistry() *SportRegistry {
	return &SportRegistry{
		sports:  make(map[string]contracts.SportModule),
		aliases: make(map[string]string),
	}
}

// Register adds a sport module to the registry. Aliases are matched
// case-insensitively and may not collide with another sport.
func (r *SportRegistry) Register(sport contracts.SportModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sportKey := sport.GetSportKey()
	if _, exists := r.sports[sportKey]; exists {
		return fmt.Errorf("sport %s is already registered", sportKey)
	}

	tags := append([]string{sportKey}, sport.GetAliases()...)
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if owner, taken := r.aliases[tag]; taken && owner != sportKey {
			return fmt.Errorf("alias %q for %s is already used by %s", tag, sportKey, owner)
		}
	}
	for _, tag := range tags {
		r.aliases[strings.ToLower(strings.TrimSpace(tag))] = sportKey
	}

	r.sports[sportKey] = sport
	return nil
}

// Get retrieves a sport module by key
func (r *SportRegistry) Get(sportKey string) (contracts.SportModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sport, exists := r.sports[sportKey]
	return sport, exists
}

// Resolve finds a sport module by key or alias ("NBA", "basketball_nba")
func (r *SportRegistry) Resolve(tag string) (contracts.SportModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.aliases[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return nil, false
	}
	return r.sports[key], true
}

// GetAll returns all registered sports ordered by key
func (r *SportRegistry) GetAll() []contracts.SportModule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sports := make([]contracts.SportModule, 0, len(r.sports))
	for _, sport := range r.sports {
		sports = append(sports, sport)
	}
	sort.Slice(sports, func(i, j int) bool {
		return sports[i].GetSportKey() < sports[j].GetSportKey()
	})
	return sports
}

// Count returns the number of registered sports
func (r *SportRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sports)
}
