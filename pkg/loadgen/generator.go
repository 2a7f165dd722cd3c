package loadgen

import (
	"math/rand"
)

// Generator produces the query mix for a run. It is seeded so two runs
// with the same config issue the same requests.
type Generator struct {
	rng    *rand.Rand
	codes  []string
	owners []string
	refs   float64
}

// NewGenerator builds a code pool of EAN-13 style codes from the config.
func NewGenerator(cfg *Config) *Generator {
	rng := rand.New(rand.NewSource(cfg.Seed))

	codes := make([]string, cfg.CodePool)
	for i := range codes {
		codes[i] = randomCode(rng)
	}

	owners := cfg.Owners
	if len(owners) == 0 {
		owners = []string{""}
	}

	return &Generator{
		rng:    rng,
		codes:  codes,
		owners: owners,
		refs:   cfg.ReferenceRatio,
	}
}

// Codes returns the full code pool.
func (g *Generator) Codes() []string {
	return g.codes
}

// Operation describes a single generated request.
type Operation struct {
	// Kind is "occurrences" or "references".
	Kind  string
	Codes []string
	Owner string
	Limit int
}

// Next returns the next operation in the mix.
func (g *Generator) Next() Operation {
	owner := g.owners[g.rng.Intn(len(g.owners))]

	if g.rng.Float64() < g.refs {
		return Operation{
			Kind:  "references",
			Codes: []string{g.codes[g.rng.Intn(len(g.codes))]},
			Owner: owner,
			Limit: 10,
		}
	}

	// Occurrence lookups batch up to the point-lookup cap.
	n := 1 + g.rng.Intn(10)
	codes := make([]string, n)
	for i := range codes {
		codes[i] = g.codes[g.rng.Intn(len(g.codes))]
	}
	return Operation{Kind: "occurrences", Codes: codes, Owner: owner}
}

// randomCode generates a 13-digit code with a non-zero leading digit.
func randomCode(rng *rand.Rand) string {
	digits := make([]byte, 13)
	digits[0] = byte('1' + rng.Intn(9))
	for i := 1; i < len(digits); i++ {
		digits[i] = byte('0' + rng.Intn(10))
	}
	return string(digits)
}
