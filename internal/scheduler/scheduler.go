package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/XavierBriggs/Argus/internal/delta"
	"github.com/XavierBriggs/Argus/internal/writer"
	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

// Retriever answers a quote request. Implemented by retrieval.Orchestrator.
type Retriever interface {
	GetQuotes(ctx context.Context, req models.OddsRequest) models.QuoteSet
}

// Config controls the polling loop
type Config struct {
	Interval    time.Duration // how often discovery runs
	Concurrency int           // max retrievals in flight
	WindowHours int           // 0: use each sport's discovery window
	JitterSecs  int
}

// Scheduler keeps quotes warm for upcoming events of every registered sport
type Scheduler struct {
	cfg         Config
	sports      []contracts.SportModule
	discoverers []contracts.EventDiscoverer
	retriever   Retriever
	deltaEngine *delta.Engine  // optional
	writer      *writer.Writer // optional
	logger      *zap.Logger
	now         func() time.Time

	mu         sync.Mutex
	lastPolled map[string]time.Time

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a new polling scheduler. Discoverers are tried in
// order per sport; the first one that answers wins.
func NewScheduler(
	cfg Config,
	sports []contracts.SportModule,
	discoverers []contracts.EventDiscoverer,
	retriever Retriever,
	deltaEngine *delta.Engine,
	w *writer.Writer,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Scheduler{
		cfg:         cfg,
		sports:      sports,
		discoverers: discoverers,
		retriever:   retriever,
		deltaEngine: deltaEngine,
		writer:      w,
		logger:      logger.Named("scheduler"),
		now:         time.Now,
		lastPolled:  make(map[string]time.Time),
		stopChan:    make(chan struct{}),
	}
}

// Start begins polling in the background until Stop or ctx cancellation
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.sports) == 0 {
		return fmt.Errorf("no sports registered")
	}
	if len(s.discoverers) == 0 {
		return fmt.Errorf("no event discoverers configured")
	}

	ctx, cancel := context.WithCancel(ctx)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.loop(ctx)
	}()

	go func() {
		defer s.wg.Done()
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for _, sport := range s.sports {
		s.logger.Info("started polling", zap.String("sport", sport.GetDisplayName()))
	}
	return nil
}

// Stop shuts the loop down and waits for in-flight retrievals
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	// Initial poll immediately
	s.Tick(ctx)

	ticker := time.NewTicker(addJitter(s.cfg.Interval, s.cfg.JitterSecs))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Tick runs one discovery sweep and refreshes every event that is due
func (s *Scheduler) Tick(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, sport := range s.sports {
		if gctx.Err() != nil {
			break
		}

		events, err := s.discover(gctx, sport)
		if err != nil {
			s.logger.Warn("event discovery failed",
				zap.String("sport", sport.GetSportKey()),
				zap.Error(err),
			)
			continue
		}

		due := s.dueEvents(sport, events)
		s.logger.Debug("discovered events",
			zap.String("sport", sport.GetSportKey()),
			zap.Int("events", len(events)),
			zap.Int("due", len(due)),
		)

		for _, evt := range due {
			sport, evt := sport, evt
			g.Go(func() error {
				s.process(gctx, sport, evt)
				return nil
			})
		}
	}

	_ = g.Wait()
}

// discover asks each discoverer in turn for the sport's events
func (s *Scheduler) discover(ctx context.Context, sport contracts.SportModule) ([]models.Event, error) {
	var lastErr error
	for _, d := range s.discoverers {
		events, err := d.FetchEvents(ctx, sport)
		if err == nil {
			return events, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all discoverers failed: %w", lastErr)
}

// dueEvents filters events to the discovery window and to those whose
// sport-specific poll interval has elapsed. Poll times of the sport's
// events that dropped out of the sweep are forgotten.
func (s *Scheduler) dueEvents(sport contracts.SportModule, events []models.Event) []models.Event {
	now := s.now()
	windowHours := s.cfg.WindowHours
	if windowHours <= 0 {
		windowHours = sport.GetDiscoveryWindowHours()
	}
	windowEnd := now.Add(time.Duration(windowHours) * time.Hour)

	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]models.Event, 0, len(events))
	tracked := make(map[string]bool, len(events))
	defer s.forget(sport, tracked)

	for _, evt := range events {
		if err := sport.ValidateEvent(&evt); err != nil {
			continue
		}

		isLive := evt.EventStatus == "live"
		if !isLive && (evt.CommenceTime.Before(now) || evt.CommenceTime.After(windowEnd)) {
			continue
		}

		hoursUntil := evt.CommenceTime.Sub(now).Hours()
		interval := sport.GetPollInterval(hoursUntil, isLive)

		key := pollKey(sport, evt)
		tracked[key] = true
		if last, ok := s.lastPolled[key]; ok && now.Sub(last) < interval {
			continue
		}
		s.lastPolled[key] = now
		due = append(due, evt)
	}
	return due
}

// forget drops poll times for the sport's events not in tracked.
// Callers hold s.mu.
func (s *Scheduler) forget(sport contracts.SportModule, tracked map[string]bool) {
	prefix := sport.GetSportKey() + ":"
	for key := range s.lastPolled {
		if strings.HasPrefix(key, prefix) && !tracked[key] {
			delete(s.lastPolled, key)
		}
	}
}

// process executes the full pipeline for one event:
// retrieve → delta → write → cache update
func (s *Scheduler) process(ctx context.Context, sport contracts.SportModule, evt models.Event) {
	start := time.Now()
	log := s.logger.With(
		zap.String("sport", sport.GetSportKey()),
		zap.String("event", evt.EventID),
	)

	req, err := models.NewOddsRequest(sport.GetSportKey(), evt.HomeTeam, evt.AwayTeam, evt.CommenceTime, sport.GetMarkets()...)
	if err != nil {
		log.Debug("skipping event", zap.Error(err))
		return
	}

	// Step 1: Retrieve from the first source that has quotes
	set := s.retriever.GetQuotes(ctx, req)
	if set.Empty() {
		return
	}
	fetchDuration := time.Since(start)

	// Step 2: Detect deltas
	deltas, err := s.detect(ctx, set)
	if err != nil {
		log.Warn("detect changes failed", zap.Error(err))
		return
	}
	if len(deltas) == 0 {
		return
	}

	// Step 3: Write deltas
	if s.writer != nil {
		if err := s.writer.Write(ctx, set, &evt, deltas); err != nil {
			log.Warn("write deltas failed", zap.Error(err))
			return
		}
	}

	// Step 4: Update Redis cache (write-through)
	if s.deltaEngine != nil {
		if err := s.deltaEngine.UpdateCache(ctx, set); err != nil {
			// cache rebuilds on the next poll
			log.Warn("update cache failed", zap.Error(err))
		}
	}

	log.Info("poll complete",
		zap.String("source", string(set.Source)),
		zap.Bool("fallback", set.Fallback),
		zap.Int("quotes", len(set.Quotes)),
		zap.Int("deltas", len(deltas)),
		zap.Duration("fetch", fetchDuration),
		zap.Duration("total", time.Since(start)),
	)
}

// detect returns the changed quotes. Without a delta engine every quote
// counts as new.
func (s *Scheduler) detect(ctx context.Context, set models.QuoteSet) ([]delta.Delta, error) {
	if s.deltaEngine != nil {
		return s.deltaEngine.DetectChanges(ctx, set)
	}

	deltas := make([]delta.Delta, len(set.Quotes))
	for i, q := range set.Quotes {
		deltas[i] = delta.Delta{
			RequestKey: set.RequestKey,
			Quote:      q,
			ChangeType: delta.ChangeTypeNew,
		}
	}
	return deltas, nil
}

func pollKey(sport contracts.SportModule, evt models.Event) string {
	if evt.EventID != "" {
		return sport.GetSportKey() + ":" + evt.EventID
	}
	return fmt.Sprintf("%s:%s@%s:%d", sport.GetSportKey(), evt.AwayTeam, evt.HomeTeam, evt.CommenceTime.Unix())
}

// addJitter adds random jitter to prevent synchronization
func addJitter(duration time.Duration, jitterSeconds int) time.Duration {
	if jitterSeconds <= 0 {
		return duration
	}

	jitter := time.Duration(rand.Intn(jitterSeconds)) * time.Second
	return duration + jitter
}
