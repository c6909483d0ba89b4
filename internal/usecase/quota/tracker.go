package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/metrics"
)

// Action defines behavior when a daily quota is exhausted.
type Action string

const (
	// ActionOff disables quota tracking.
	ActionOff Action = ""
	// ActionWarn logs a warning but allows the request.
	ActionWarn Action = "warn"
	// ActionReject blocks the request.
	ActionReject Action = "reject"
)

// ParseAction validates a configured action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionOff, ActionWarn, ActionReject:
		return a, nil
	default:
		return ActionOff, fmt.Errorf("unknown quota action %q (want warn or reject)", s)
	}
}

// Store is the persistence interface for daily counters.
// IncrBy returns the counter value after the increment.
type Store interface {
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
}

// Tracker counts requests and tokens per UTC day against a catalog model's published limits.
// Check is in-memory only; Record writes behind to the store when one is attached.
type Tracker struct {
	mu           sync.Mutex
	requestsUsed int64
	tokensUsed   int64
	requestLimit int64
	tokenLimit   int64
	action       Action
	model        string
	keyPrefix    string
	lastReset    time.Time
	now          func() time.Time
	store        Store
	logger       *zap.Logger
}

// NewTracker creates a tracker for spec. Zero limits mean unlimited.
func NewTracker(spec domain.ModelSpec, action Action, keyPrefix string, logger *zap.Logger) *Tracker {
	t := &Tracker{
		requestLimit: int64(spec.RequestsPerDay),
		tokenLimit:   int64(spec.TokensPerDay),
		action:       action,
		model:        spec.Key,
		keyPrefix:    keyPrefix,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
	t.lastReset = truncateToDay(t.now())
	return t
}

// WithStore attaches a persistence store and loads today's counters.
func (t *Tracker) WithStore(ctx context.Context, store Store) *Tracker {
	t.store = store
	t.loadFromStore(ctx)
	return t
}

func (t *Tracker) loadFromStore(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.now()
	if val, err := t.store.Get(ctx, t.key("requests", day)); err == nil {
		t.requestsUsed = val
	} else {
		t.logger.Warn("Failed to load request quota from store", zap.Error(err))
	}
	if val, err := t.store.Get(ctx, t.key("tokens", day)); err == nil {
		t.tokensUsed = val
	} else {
		t.logger.Warn("Failed to load token quota from store", zap.Error(err))
	}

	t.logger.Info("Quota loaded from store",
		zap.String("model", t.model),
		zap.Int64("requests_used", t.requestsUsed),
		zap.Int64("tokens_used", t.tokensUsed),
	)
}

func (t *Tracker) key(kind string, day time.Time) string {
	return fmt.Sprintf("%squota:%s:%s:%s", t.keyPrefix, t.model, kind, day.Format("2006-01-02"))
}

// Check verifies that a new request fits into today's quota.
func (t *Tracker) Check(_ context.Context) error {
	if t.action == ActionOff {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNeeded()

	requestsExceeded := t.requestLimit > 0 && t.requestsUsed >= t.requestLimit
	tokensExceeded := t.tokenLimit > 0 && t.tokensUsed >= t.tokenLimit
	if !requestsExceeded && !tokensExceeded {
		return nil
	}

	if t.action == ActionReject {
		return fmt.Errorf("%s: %w", t.model, domain.ErrQuotaExceeded)
	}

	t.logger.Warn("Daily model quota exceeded",
		zap.String("model", t.model),
		zap.Int64("requests_used", t.requestsUsed),
		zap.Int64("requests_limit", t.requestLimit),
		zap.Int64("tokens_used", t.tokensUsed),
		zap.Int64("tokens_limit", t.tokenLimit),
	)
	return nil
}

// Record registers one finished request and the tokens it consumed.
func (t *Tracker) Record(tokens int64) {
	if t.action == ActionOff {
		return
	}

	t.mu.Lock()
	t.resetIfNeeded()
	t.requestsUsed++
	t.tokensUsed += tokens
	requestsLeft, tokensLeft := t.remainingLocked()
	store := t.store
	day := t.now()
	t.mu.Unlock()

	metrics.LLMQuotaRemaining.WithLabelValues(t.model, "requests").Set(float64(requestsLeft))
	metrics.LLMQuotaRemaining.WithLabelValues(t.model, "tokens").Set(float64(tokensLeft))

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if total, err := store.IncrBy(ctx, t.key("requests", day), 1); err != nil {
		t.logger.Warn("Failed to persist request quota", zap.Error(err))
	} else {
		t.reconcile(day, &t.requestsUsed, total)
	}
	if tokens > 0 {
		if total, err := store.IncrBy(ctx, t.key("tokens", day), tokens); err != nil {
			t.logger.Warn("Failed to persist token quota", zap.Error(err))
		} else {
			t.reconcile(day, &t.tokensUsed, total)
		}
	}
}

// reconcile raises a local counter to the persisted total so instances sharing
// one store converge on the same usage. Totals from a previous day are ignored.
func (t *Tracker) reconcile(day time.Time, used *int64, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !truncateToDay(day).Equal(t.lastReset) {
		return
	}
	*used = max(*used, total)
}

// Remaining returns requests and tokens left today (-1 if unlimited).
func (t *Tracker) Remaining() (requests, tokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return t.remainingLocked()
}

func (t *Tracker) remainingLocked() (requests, tokens int64) {
	return remaining(t.requestLimit, t.requestsUsed), remaining(t.tokenLimit, t.tokensUsed)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(0, limit-used)
}

// resetIfNeeded zeroes counters when the UTC day rolls over.
func (t *Tracker) resetIfNeeded() {
	today := truncateToDay(t.now())
	if today.After(t.lastReset) {
		t.requestsUsed = 0
		t.tokensUsed = 0
		t.lastReset = today
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
