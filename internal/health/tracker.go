// Package health memoizes which sources are currently unavailable so that
// concurrent and subsequent requests skip them without a network call.
package health

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

// Reason is the systemic failure class a record was created for
type Reason string

const (
	ReasonQuotaExhausted Reason = "quota-exhausted"
	ReasonRateLimited    Reason = "rate-limited"
	ReasonServerError    Reason = "server-error"
)

// Record is the health state of one source. Records only exist for
// sources that are currently unavailable.
type Record struct {
	Source      models.SourceID `json:"source"`
	Unavailable bool            `json:"unavailable"`
	Reason      Reason          `json:"reason"`
	Since       time.Time       `json:"since"`
	RetryAfter  time.Duration   `json:"retry_after,omitempty"`
	Until       time.Time       `json:"until,omitempty"` // zero: until restart
	Failures    int             `json:"failures"`
}

// Cooldowns configures how long each failure class keeps a source out of
// rotation. A zero duration keeps the record until process restart.
type Cooldowns struct {
	QuotaExhausted time.Duration
	RateLimited    time.Duration
	ServerError    time.Duration
}

// DefaultCooldowns returns the cool-downs used when none are configured
func DefaultCooldowns() Cooldowns {
	return Cooldowns{
		QuotaExhausted: time.Hour,
		RateLimited:    time.Minute,
		ServerError:    30 * time.Second,
	}
}

func (c Cooldowns) forReason(r Reason) time.Duration {
	switch r {
	case ReasonQuotaExhausted:
		return c.QuotaExhausted
	case ReasonRateLimited:
		return c.RateLimited
	default:
		return c.ServerError
	}
}

// Tracker holds per-source health records. It is safe for concurrent use;
// every read and write of the record map happens under one mutex.
type Tracker struct {
	cooldowns Cooldowns
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	records map[models.SourceID]*Record

	// seq counts recorded failures; failedAt holds each source's latest
	seq      uint64
	failedAt map[models.SourceID]uint64
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker creates an empty tracker
func NewTracker(cooldowns Cooldowns, opts ...Option) *Tracker {
	t := &Tracker{
		cooldowns: cooldowns,
		logger:    zap.NewNop(),
		now:       time.Now,
		records:   make(map[models.SourceID]*Record),
		failedAt:  make(map[models.SourceID]uint64),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsAvailable reports whether a source may be invoked. Records whose
// cool-down has elapsed are cleared here.
func (t *Tracker) IsAvailable(id models.SourceID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return true
	}

	if !rec.Until.IsZero() && !t.now().Before(rec.Until) {
		delete(t.records, id)
		t.logger.Info("source cool-down elapsed",
			zap.String("source", string(id)),
			zap.String("reason", string(rec.Reason)),
		)
		return true
	}

	return false
}

// RecordFailure marks a source unavailable for systemic failures.
// Transport and NotFound failures describe a single request and are ignored.
func (t *Tracker) RecordFailure(id models.SourceID, failure *contracts.SourceFailure) {
	if failure == nil {
		return
	}

	var reason Reason
	switch failure.Kind {
	case contracts.AuthExhausted:
		reason = ReasonQuotaExhausted
	case contracts.RateLimited:
		reason = ReasonRateLimited
	case contracts.ServerError:
		reason = ReasonServerError
	case contracts.NotFound, contracts.Transport:
		return
	default:
		return
	}

	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if ok && !rec.Until.IsZero() && !now.Before(rec.Until) {
		ok = false
	}
	if !ok {
		rec = &Record{Source: id, Since: now}
		t.records[id] = rec
	}

	t.seq++
	t.failedAt[id] = t.seq
	rec.Unavailable = true
	rec.Reason = reason
	rec.RetryAfter = failure.RetryAfter
	rec.Failures++

	until := t.expiry(now, reason, failure.RetryAfter)
	// Concurrent reporters may race; never shorten an existing window
	if ok && (rec.Until.IsZero() || (!until.IsZero() && until.Before(rec.Until))) {
		until = rec.Until
	}
	rec.Until = until

	t.logger.Warn("source marked unavailable",
		zap.String("source", string(id)),
		zap.String("reason", string(reason)),
		zap.Int("failures", rec.Failures),
		zap.Duration("retry_after", failure.RetryAfter),
		zap.Time("until", rec.Until),
	)
}

// Begin returns a token marking the start of a source call. Hand it back to
// RecordSuccess when the call succeeds.
func (t *Tracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// RecordSuccess clears the source's record unless a failure was recorded
// after the call identified by token began
func (t *Tracker) RecordSuccess(id models.SourceID, token uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return
	}
	if t.failedAt[id] > token {
		t.logger.Debug("keeping failure recorded during successful call",
			zap.String("source", string(id)),
			zap.String("reason", string(rec.Reason)),
		)
		return
	}
	delete(t.records, id)
	t.logger.Info("source recovered", zap.String("source", string(id)))
}

// Record returns a copy of the current record for a source
func (t *Tracker) Record(id models.SourceID) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Snapshot returns copies of all current records ordered by source
func (t *Tracker) Snapshot() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// expiry computes when a record stops blocking a source. A retry-after
// hint longer than the cool-down wins.
func (t *Tracker) expiry(now time.Time, reason Reason, retryAfter time.Duration) time.Time {
	cooldown := t.cooldowns.forReason(reason)
	if cooldown == 0 {
		return time.Time{}
	}
	if retryAfter > cooldown {
		cooldown = retryAfter
	}
	return now.Add(cooldown)
}
