// Package matching scores posted loads against an intake's lane, equipment and
// pickup date.
package matching

import (
	"sort"
	"time"

	"carriercheck/internal/domain"
)

const (
	// DefaultLimit applies when Match is called with a non-positive limit.
	DefaultLimit = 3

	DefaultSourceTag = "fake_loads_file"
)

// Engine is a pure function of its inputs apart from the checked_at clock.
type Engine struct {
	policy    Policy
	sourceTag string
	clock     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithSourceTag sets the provenance label reported as MatchResult.Source.
func WithSourceTag(tag string) Option {
	return func(e *Engine) {
		if tag != "" {
			e.sourceTag = tag
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewEngine returns an engine using ExactPolicy unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy:    ExactPolicy{},
		sourceTag: DefaultSourceTag,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Match scores every load, keeps the matches in score order (ties keep source
// order) and truncates to limit. TotalAvailable counts the whole source.
func (e *Engine) Match(intake domain.Intake, loads []domain.Load, limit int) domain.MatchResult {
	if limit <= 0 {
		limit = DefaultLimit
	}
	c := NewCriteria(intake)

	matches := make([]domain.MatchedLoad, 0, min(limit, len(loads)))
	for _, load := range loads {
		score, reasons, ok := e.policy.Score(c, load)
		if !ok {
			continue
		}
		matches = append(matches, domain.MatchedLoad{
			Load:         load,
			MatchScore:   score,
			MatchReasons: reasons,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return domain.MatchResult{
		Matches:        matches,
		Source:         e.sourceTag,
		Status:         domain.StatusReady,
		CheckedAt:      e.clock().UTC(),
		TotalAvailable: len(loads),
	}
}
