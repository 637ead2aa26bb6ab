// Package adaptive picks items with a bias toward the ones a user gets
// wrong or has seen least.
//
// A [Selector] keeps one [Weight] per item. Weights are read from a
// [cache.Cache] the first time [Selector.EnsureLoaded] is called and are
// retained for the life of the selector; concurrent first calls share a
// single read. [Selector.Pick] draws from a candidate list in proportion to
// each candidate's score, and [Selector.Record] updates the score after an
// answer. [Selector.Save] writes the table back.
package adaptive

import (
	"context"
	"encoding/json"
	"io"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/appshell/pkg/cache"
	apperrors "github.com/matzehuels/appshell/pkg/errors"
	"github.com/matzehuels/appshell/pkg/lazy"
)

// WeightsKey is the cache key the weight table is stored under.
const WeightsKey = "adaptive:weights"

const (
	wrongBoost = 2.0  // each wrong answer adds this much to the numerator
	seenDecay  = 0.5  // each view adds this much to the denominator
	minScore   = 0.05 // floor so mastered items still come up occasionally
)

// ErrNotLoaded is returned by operations that need the weight table before
// EnsureLoaded has succeeded.
var ErrNotLoaded = apperrors.New(apperrors.ErrCodeNotLoaded, "adaptive weights not loaded")

// Weight is the selection record for one item.
type Weight struct {
	Seen    int     `json:"seen"`
	Correct int     `json:"correct"`
	Wrong   int     `json:"wrong"`
	Score   float64 `json:"score"`
}

// Weights maps item keys to their records.
type Weights map[string]Weight

// score returns the draw weight for w. Unseen items score 1.
func score(w Weight) float64 {
	s := (1 + wrongBoost*float64(w.Wrong)) / (1 + seenDecay*float64(w.Seen))
	return max(s, minScore)
}

// table is the loaded weight set. The lazy loader retains a pointer to it,
// so updates after load go through mu rather than through the loader.
type table struct {
	mu      sync.Mutex
	weights Weights
}

// Selector draws items weighted by past answers.
type Selector struct {
	store  cache.Cache
	logger *log.Logger
	loader *lazy.Loader[*table]

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand sets the random source. Tests use a seeded source for
// reproducible draws.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) { s.rng = r }
}

// WithLogger attaches a logger to the selector and its loader.
func WithLogger(l *log.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

// New creates a selector backed by store. A nil store keeps weights in
// memory only for the life of the process.
func New(store cache.Cache, opts ...Option) *Selector {
	if store == nil {
		store = cache.NewNullCache()
	}
	s := &Selector{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	s.loader = lazy.New(s.load, lazy.WithName("adaptive"), lazy.WithLogger(s.logger))
	return s
}

// load reads the table from the store. A missing or undecodable entry
// starts an empty table; a backend error fails the load so it is retried.
func (s *Selector) load(ctx context.Context) (*table, error) {
	data, ok, err := s.store.Get(ctx, WeightsKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeLoadFailed, err, "read adaptive weights")
	}
	t := &table{weights: Weights{}}
	if !ok {
		return t, nil
	}
	if err := json.Unmarshal(data, &t.weights); err != nil {
		s.logger.Warn("discarding corrupt adaptive weights", "err", err)
		return &table{weights: Weights{}}, nil
	}
	if t.weights == nil {
		t.weights = Weights{}
	}
	return t, nil
}

// EnsureLoaded loads the weight table once. Concurrent callers share one
// read; a failed read is retried on the next call.
func (s *Selector) EnsureLoaded(ctx context.Context) error {
	_, err := s.loader.EnsureLoaded(ctx)
	return err
}

// State reports the loader state of the weight table.
func (s *Selector) State() lazy.State {
	return s.loader.State()
}

func (s *Selector) table() (*table, error) {
	t, ok := s.loader.Peek()
	if !ok {
		return nil, ErrNotLoaded
	}
	return t, nil
}

// Pick draws one of candidates with probability proportional to its score.
// Duplicate candidates are drawn proportionally more often.
func (s *Selector) Pick(candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", apperrors.New(apperrors.ErrCodeInvalidInput, "no candidates to pick from")
	}
	t, err := s.table()
	if err != nil {
		return "", err
	}

	scores := make([]float64, len(candidates))
	var total float64
	t.mu.Lock()
	for i, c := range candidates {
		scores[i] = score(t.weights[c])
		total += scores[i]
	}
	t.mu.Unlock()

	s.rngMu.Lock()
	r := s.rng.Float64() * total
	s.rngMu.Unlock()

	for i, sc := range scores {
		if r < sc {
			return candidates[i], nil
		}
		r -= sc
	}
	return candidates[len(candidates)-1], nil
}

// Record updates item after an answer.
func (s *Selector) Record(item string, correct bool) error {
	if item == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "item cannot be empty")
	}
	t, err := s.table()
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.weights[item]
	w.Seen++
	if correct {
		w.Correct++
	} else {
		w.Wrong++
	}
	w.Score = score(w)
	t.weights[item] = w
	return nil
}

// Weight returns the record for item. Before the table is loaded, and for
// items never recorded, it returns a zero record with the unseen score.
func (s *Selector) Weight(item string) Weight {
	t, err := s.table()
	if err != nil {
		return Weight{Score: score(Weight{})}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.weights[item]
	if !ok {
		w.Score = score(w)
	}
	return w
}

// Snapshot returns a copy of the loaded table.
func (s *Selector) Snapshot() (Weights, error) {
	t, err := s.table()
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.weights), nil
}

// Save writes the table to the store. It is an error to save before the
// table has been loaded, since that would overwrite stored weights.
func (s *Selector) Save(ctx context.Context) error {
	t, err := s.table()
	if err != nil {
		return err
	}
	t.mu.Lock()
	n := len(t.weights)
	data, err := json.Marshal(t.weights)
	t.mu.Unlock()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode adaptive weights")
	}
	if err := s.store.Set(ctx, WeightsKey, data, 0); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "save adaptive weights")
	}
	s.logger.Debug("saved adaptive weights", "items", n)
	return nil
}
