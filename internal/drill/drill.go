// Package drill orders selected sentences for a practice run.
package drill

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/fluent/internal/model"
)

// Generator produces randomized drill orders.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Order returns every item exactly once. With focusLeast set, sentences with
// fewer repetitions tend to come first.
func (g *Generator) Order(items []model.SelectedSentence, focusLeast bool, factor float64) []model.SelectedSentence {
	out := make([]model.SelectedSentence, len(items))
	copy(out, items)
	if !focusLeast || factor <= 0 {
		g.rnd.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
		return out
	}
	return g.weighted(out, factor)
}

// weighted samples without replacement. Each item weighs
// 1 + factor*(maxCount-count), so the least practised sentence weighs most.
func (g *Generator) weighted(items []model.SelectedSentence, factor float64) []model.SelectedSentence {
	maxCount := 0
	for _, it := range items {
		maxCount = max(maxCount, it.Sentence.PracticeCount)
	}
	weights := make([]float64, len(items))
	total := 0.0
	for i, it := range items {
		w := 1.0 + float64(maxCount-it.Sentence.PracticeCount)*factor
		weights[i] = w
		total += w
	}

	result := make([]model.SelectedSentence, 0, len(items))
	for len(items) > 0 {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := len(items) - 1
		for j, w := range weights {
			acc += w
			if r < acc {
				idx = j
				break
			}
		}
		result = append(result, items[idx])
		total -= weights[idx]
		items = append(items[:idx], items[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return result
}
