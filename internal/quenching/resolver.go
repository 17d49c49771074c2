// Package quenching maps experiment names to quenching-factor calibration
// candidates.
package quenching

import (
	"sort"
	"strings"

	"github.com/vk/dmsweep/internal/config"
)

// DefaultTable holds the published calibrations for the experiments that
// need one. Every other token resolves to a single unset factor.
func DefaultTable() map[string][]float64 {
	return map[string][]float64{
		"KIMS2012":                {0.1, 0.05},
		"DAMA2010Na":              {0.4, 0.3},
		"DAMA2010I":               {0.09, 0.06},
		"DAMA2010Na_TotRateLimit": {0.4},
	}
}

// Resolver resolves experiment names against a quenching table.
type Resolver struct {
	table map[string][]float64
}

// NewResolver returns a Resolver over the default table with overrides
// applied on top.
func NewResolver(overrides map[string][]float64) *Resolver {
	table := DefaultTable()
	for token, values := range overrides {
		table[token] = append([]float64(nil), values...)
	}
	return &Resolver{table: table}
}

// Tokens returns the tokens that have a calibration, sorted.
func (r *Resolver) Tokens() []string {
	out := make([]string, 0, len(r.table))
	for k := range r.table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve splits experName on whitespace, looks every token up and returns
// the aligned candidates: the i-th candidate holds the i-th value of every
// token, and the result is as long as the shortest per-token list.
func (r *Resolver) Resolve(experName string) []config.Quenching {
	tokens := strings.Fields(experName)
	if len(tokens) == 0 {
		return nil
	}

	perToken := make([][]*float64, len(tokens))
	n := -1
	for i, tok := range tokens {
		values, ok := r.table[tok]
		if !ok {
			perToken[i] = []*float64{nil}
		} else {
			perToken[i] = make([]*float64, len(values))
			for j := range values {
				perToken[i][j] = config.Factor(values[j])
			}
		}
		if n < 0 || len(perToken[i]) < n {
			n = len(perToken[i])
		}
	}

	out := make([]config.Quenching, n)
	for j := 0; j < n; j++ {
		factors := make([]*float64, len(tokens))
		for i := range tokens {
			factors[i] = perToken[i][j]
		}
		out[j] = config.NewQuenching(factors...)
	}
	return out
}

// FirstToken returns the first whitespace-separated token of experName.
func FirstToken(experName string) string {
	f := strings.Fields(experName)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
