// Package candidate synthesizes guess strings for credential verification.
// Generation escalates through four phases as the attempt number grows.
package candidate

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"bytemomo/moray/internal/metrics"

	"github.com/spaolacci/murmur3"
)

type strategy func(g *Generator, seed string) string

var strategies = map[Phase]strategy{
	Phase1: (*Generator).dictionary,
	Phase2: (*Generator).keyboard,
	Phase3: (*Generator).composed,
	Phase4: (*Generator).templated,
}

// Generator produces candidates. It is safe for concurrent use.
//
// The dedupe set is keyed by 64-bit murmur3 hashes of the candidates so that
// long sessions stay small in memory.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	attempt uint64
	seen    map[uint64]struct{}
}

// NewGenerator returns a generator whose random stream is seeded from the
// wall clock, so every process run explores a different order.
func NewGenerator() *Generator {
	now := uint64(time.Now().UnixNano())
	return NewSeededGenerator(now, now>>1^0x9e3779b97f4a7c15)
}

// NewSeededGenerator returns a generator with a fixed random stream.
func NewSeededGenerator(seed1, seed2 uint64) *Generator {
	return &Generator{
		rng:  rand.New(rand.NewPCG(seed1, seed2)),
		seen: make(map[uint64]struct{}),
	}
}

// Generate returns a candidate for seed using the strategy of the phase that
// attempt falls into. It does not consult or update the dedupe set.
func (g *Generator) Generate(seed string, attempt uint64) string {
	phase := PhaseFor(attempt)

	g.mu.Lock()
	c := strategies[phase](g, seed)
	g.mu.Unlock()

	metrics.CandidatesGenerated.WithLabelValues(phase.String()).Inc()
	return c
}

// Next generates a candidate for the internal attempt counter and advances it.
func (g *Generator) Next(seed string) string {
	g.mu.Lock()
	attempt := g.attempt
	g.attempt++
	g.mu.Unlock()
	return g.Generate(seed, attempt)
}

// Attempts returns the internal attempt counter.
func (g *Generator) Attempts() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempt
}

// Remember records c in the dedupe set and reports whether it was new.
func (g *Generator) Remember(c string) bool {
	key := murmur3.Sum64([]byte(c))

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[key]; ok {
		return false
	}
	g.seen[key] = struct{}{}
	return true
}

// Seen reports whether c is in the dedupe set.
func (g *Generator) Seen(c string) bool {
	key := murmur3.Sum64([]byte(c))

	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.seen[key]
	return ok
}

// ClearCache empties the dedupe set. The attempt counter and the random
// stream are left alone.
func (g *Generator) ClearCache() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = make(map[uint64]struct{})
}

func (g *Generator) dictionary(seed string) string {
	base := CleanSeed(seed)

	patterns := append([]string(nil), commonWords...)
	lower, upper := strings.ToLower(base), strings.ToUpper(base)
	for _, suffix := range commonSuffixes {
		patterns = append(patterns, base+suffix, lower+suffix, upper+suffix)
	}
	return g.pick(patterns)
}

func (g *Generator) keyboard(seed string) string {
	leet := Leet(CleanSeed(seed))

	patterns := append([]string(nil), keyboardWalks...)
	patterns = append(patterns, leet, leet+"123", leet+"!")

	n := min(len(patterns), 10)
	for _, p := range patterns[:n] {
		patterns = append(patterns, capitalize(p), strings.ToUpper(p), strings.ToLower(p))
	}
	return g.pick(patterns)
}

func (g *Generator) composed(seed string) string {
	base := CleanSeed(seed)

	var c string
	switch g.rng.IntN(5) {
	case 0:
		c = base + strconv.Itoa(1000+g.rng.IntN(9000))
	case 1:
		c = capitalize(base) + string(g.symbol())
	case 2:
		c = g.pick(commonPrefixes) + base + "123"
	case 3:
		c = Leet(base) + g.pick(commonSuffixes)
	default:
		c = base + string(g.symbol()) + strconv.Itoa(100+g.rng.IntN(900))
	}

	if len(c) < 8 || len(c) > 16 {
		return g.random(fallbackSize)
	}
	return c
}

func (g *Generator) templated(string) string {
	tpl := g.pick(templates)

	var b strings.Builder
	b.Grow(len(tpl))
	for i := 0; i < len(tpl); i++ {
		switch tpl[i] {
		case 'w':
			b.WriteByte(letters[g.rng.IntN(len(letters))])
		case 'd':
			b.WriteByte(digits[g.rng.IntN(len(digits))])
		case 's':
			b.WriteByte(g.symbol())
		}
	}
	return b.String()
}

func (g *Generator) pick(from []string) string {
	return from[g.rng.IntN(len(from))]
}

func (g *Generator) symbol() byte {
	return symbols[g.rng.IntN(len(symbols))]
}

func (g *Generator) random(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = fallbackSet[g.rng.IntN(len(fallbackSet))]
	}
	return string(out)
}
