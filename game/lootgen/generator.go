// Package lootgen decides how much loot to drop onto a session each
// tick. The generator is stateful: it accumulates the time since it
// last spawned anything, so sparse sessions catch up quickly while full
// ones stay full.
package lootgen

import "math"

// RandomFn supplies the random factor of a spawn decision in [0, 1].
type RandomFn func() float64

// Generator spawns loot with a Bernoulli-per-interval schedule defined
// by a base interval and a success probability.
type Generator struct {
	baseIntervalMS float64
	probability    float64

	timeWithoutLootMS float64
	random            RandomFn
}

// New creates a generator. baseIntervalMS must be positive and
// probability must lie in (0, 1].
func New(baseIntervalMS int64, probability float64) *Generator {
	return &Generator{
		baseIntervalMS: float64(baseIntervalMS),
		probability:    probability,
		random:         func() float64 { return 1.0 },
	}
}

// SetRandom overrides the random factor; tests install a deterministic
// function.
func (g *Generator) SetRandom(fn RandomFn) {
	g.random = fn
}

// Generate returns how many loot items to spawn now, given the elapsed
// time, the loot already on the ground and the number of dogs hunting
// it. The result never raises the loot count above the looter count.
// The internal clock resets whenever anything spawns.
func (g *Generator) Generate(dtMS int64, lootCount, looterCount int) int {
	g.timeWithoutLootMS += float64(dtMS)

	shortage := looterCount - lootCount
	if shortage <= 0 {
		return 0
	}

	ratio := g.timeWithoutLootMS / g.baseIntervalMS
	probability := clamp((1.0-math.Pow(1.0-g.probability, ratio))*g.random(), 0.0, 1.0)

	generated := int(math.Round(float64(shortage) * probability))
	if generated > 0 {
		g.timeWithoutLootMS = 0
	}
	return generated
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
