package recommend

import (
	"math/rand/v2"
	"strings"
)

// Strategy selects which part of a library seed tracks are drawn from
type Strategy string

const (
	StrategyAllRandom   Strategy = "all-random"
	StrategySuperRecent Strategy = "super-recent"
	StrategyRecent      Strategy = "recent"
	StrategyHalfAndHalf Strategy = "half-and-half"
)

const (
	superRecentWindow = 70
	recentShare       = 0.3
)

// ParseStrategy maps a name to a Strategy, falling back to StrategyRecent
func ParseStrategy(name string) Strategy {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case StrategyAllRandom, StrategySuperRecent, StrategyRecent, StrategyHalfAndHalf:
		return s
	default:
		return StrategyRecent
	}
}

// Strategies lists every strategy in display order
func Strategies() []Strategy {
	return []Strategy{StrategyRecent, StrategySuperRecent, StrategyHalfAndHalf, StrategyAllRandom}
}

// Sampler draws library offsets. Draws are independent and with replacement.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a Sampler on a randomly seeded source
func NewSampler() *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededSampler returns a deterministic Sampler
func NewSeededSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Sample returns min(maxSamples, total) offsets in [0, total)
func (s *Sampler) Sample(total int, strategy Strategy, maxSamples int) []int {
	n := min(maxSamples, total)
	if n <= 0 {
		return []int{}
	}

	recentEnd := int(float64(total) * recentShare)
	offsets := make([]int, 0, n)

	switch strategy {
	case StrategyAllRandom:
		offsets = s.draw(offsets, 0, total, n)
	case StrategySuperRecent:
		offsets = s.draw(offsets, 0, min(superRecentWindow, total), n)
	case StrategyHalfAndHalf:
		half := n / 2
		offsets = s.draw(offsets, 0, recentEnd, half)
		offsets = s.draw(offsets, recentEnd, total, n-half)
	default:
		offsets = s.draw(offsets, 0, recentEnd, n)
	}

	return offsets
}

// draw appends count offsets uniform in [lo, hi). An empty range yields lo.
func (s *Sampler) draw(dst []int, lo, hi, count int) []int {
	width := hi - lo
	for range count {
		if width <= 0 {
			dst = append(dst, lo)
			continue
		}
		dst = append(dst, lo+s.rng.IntN(width))
	}
	return dst
}
