package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// TieredScorer wraps remote scoring with retry, exponential backoff and a
// model fallback chain. Strategies are tried in order, first success wins:
//
//  1. primary scorer, up to maxAttempts tries with backoff on transient errors
//  2. secondary (cheaper) scorer, one try
//  3. rule-based local scorer, which cannot fail
//
// The qualify node therefore always terminates with a score unless the lead
// itself is invalid, which is reported immediately as ErrInvalidInput.
type TieredScorer struct {
	primary   Scorer
	secondary Scorer
	fallback  *RuleScorer
	limiter   *rate.Limiter
	logger    Logger

	maxAttempts int
	backoffBase time.Duration
}

// TieredScorerOptions configures a TieredScorer.
type TieredScorerOptions struct {
	// MaxAttempts is the total number of tries against the primary scorer.
	MaxAttempts int
	// BackoffBase is the initial retry wait; attempt n waits base * 2^n.
	BackoffBase time.Duration
	// RatePerSecond and RateBurst gate all remote scoring calls. Zero
	// disables rate limiting.
	RatePerSecond float64
	RateBurst     int
}

// NewTieredScorer creates a new TieredScorer. secondary may be nil, in which
// case the chain goes straight from primary to the rule-based fallback.
func NewTieredScorer(primary, secondary Scorer, fallback *RuleScorer, opts TieredScorerOptions, logger Logger) *TieredScorer {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 2 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &TieredScorer{
		primary:     primary,
		secondary:   secondary,
		fallback:    fallback,
		limiter:     limiter,
		logger:      logger,
		maxAttempts: opts.MaxAttempts,
		backoffBase: opts.BackoffBase,
	}
}

// Score runs the fallback chain for a lead.
func (t *TieredScorer) Score(ctx context.Context, lead *models.LeadProfile) (*ScoreResult, error) {
	if err := ValidateLead(lead); err != nil {
		return nil, err
	}

	attempts := 0

	if t.primary == nil {
		// No remote tiers configured; score locally without a caveat.
		return t.fallback.Score(lead), nil
	}

	// Tier 1: primary scorer with retry.
	var result *ScoreResult
	operation := func() error {
		if err := t.wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		r, err := t.primary.Score(ctx, lead)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			t.logger.Warn("primary scoring attempt %d failed: %v", attempts, err)
			return err
		}
		result = r
		return nil
	}
	err := backoff.Retry(operation, t.newBackoff(ctx))
	if err == nil {
		result.Attempts = attempts
		return result, nil
	}
	if errors.Is(err, ErrInvalidInput) || ctx.Err() != nil {
		return nil, err
	}

	// Tier 2: secondary scorer, single attempt.
	if t.secondary != nil {
		if werr := t.wait(ctx); werr != nil {
			return nil, werr
		}
		attempts++
		r, serr := t.secondary.Score(ctx, lead)
		if serr == nil {
			r.Reasoning = fmt.Sprintf("%s [caveat: primary scoring failed after %d attempts; scored by secondary model]",
				r.Reasoning, t.maxAttempts)
			r.Attempts = attempts
			return r, nil
		}
		if errors.Is(serr, ErrInvalidInput) {
			return nil, serr
		}
		t.logger.Warn("secondary scoring failed: %v", serr)
	}

	// Every remote tier is exhausted. Logged but never surfaced: tier 3
	// always produces a score.
	t.logger.Error("all remote scoring tiers failed for lead %s: %v", lead.ID, ErrScoringUnavailable)

	r := t.fallback.Score(lead)
	r.Reasoning = fmt.Sprintf("%s [caveat: remote scoring unavailable; deterministic rule-based score]", r.Reasoning)
	r.Attempts = attempts
	return r, nil
}

func (t *TieredScorer) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

func (t *TieredScorer) newBackoff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = t.backoffBase
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 30 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(t.maxAttempts-1)), ctx)
}
