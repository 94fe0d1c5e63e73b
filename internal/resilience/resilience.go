// Package resilience provides retry and circuit-breaker wrappers for
// outbound backend calls. Each backend carries its own retry budget:
// vector database retries are cheap and fast, generation retries are
// slow and expensive. Wrappers compose explicitly at construction time
// rather than hiding behind the call site.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// ErrOpen is returned when a circuit breaker refuses a call during its
// cooldown window.
var ErrOpen = errors.New("circuit breaker open")

// RetryPolicy describes a bounded exponential backoff schedule.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration
}

// Per-backend retry budgets, mirroring the cost/latency profile of each
// service.
var (
	// EmbeddingRetry covers embedding API calls.
	EmbeddingRetry = RetryPolicy{MaxAttempts: 3, InitialBackoff: 1 * time.Second, MaxBackoff: 10 * time.Second}

	// VectorDBRetry covers vector database queries and upserts.
	VectorDBRetry = RetryPolicy{MaxAttempts: 3, InitialBackoff: 500 * time.Millisecond, MaxBackoff: 8 * time.Second}

	// KeywordRetry covers keyword engine calls: one retry, short
	// backoff, then the caller degrades to "no keyword results".
	KeywordRetry = RetryPolicy{MaxAttempts: 2, InitialBackoff: 250 * time.Millisecond, MaxBackoff: 1 * time.Second}

	// GenerationRetry covers LLM generation calls.
	GenerationRetry = RetryPolicy{MaxAttempts: 3, InitialBackoff: 2 * time.Second, MaxBackoff: 16 * time.Second}
)

// Do runs fn, retrying on error per the policy. It stops early when the
// context is cancelled. The last error is returned after the attempt
// budget is exhausted.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		// An open breaker will not close by retrying.
		if errors.Is(lastErr, ErrOpen) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		logger.Warn("%s attempt %d/%d failed: %v (retrying in %s)", op, attempt, attempts, lastErr, backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return lastErr
}

// Breaker is a consecutive-failure circuit breaker. After Threshold
// consecutive failures it opens and refuses calls with ErrOpen until
// Cooldown has elapsed, then allows a single probe (half-open). A
// successful probe closes the breaker; a failed probe reopens it.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu          sync.Mutex
	failures    int
	openedAt    time.Time
	open        bool
	now         func() time.Time // overridable in tests
}

// NewBreaker creates a circuit breaker for the named backend.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Execute runs fn unless the breaker is open, and records the outcome.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn()
	b.record(err == nil)
	return err
}

// State returns "closed", "open", or "half-open".
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return "closed"
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		return "half-open"
	}
	return "open"
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		// Half-open: let one probe through.
		return nil
	}
	return ErrOpen
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.failures = 0
		b.open = false
		return
	}

	b.failures++
	if b.failures >= b.threshold {
		if !b.open {
			logger.Warn("circuit breaker %q opened after %d consecutive failures", b.name, b.failures)
		}
		b.open = true
		b.openedAt = b.now()
	}
}
