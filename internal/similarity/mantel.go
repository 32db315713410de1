package similarity

import (
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/posematrix"
)

// Correlation is the statistic computed between condensed distance matrices.
type Correlation int

const (
	Pearson Correlation = iota
	Spearman
)

func (c Correlation) String() string {
	if c == Spearman {
		return "spearman"
	}
	return "pearson"
}

// ParseCorrelation maps "pearson" or "spearman" to a Correlation.
func ParseCorrelation(name string) (Correlation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pearson":
		return Pearson, nil
	case "spearman":
		return Spearman, nil
	}
	return Pearson, errs.Invalid("unknown correlation %q", name)
}

// MantelOptions configures a Mantel test.
type MantelOptions struct {
	Correlation Correlation
	// Permutations is the number of row/column permutations used for the
	// p-value. Zero skips the permutation test.
	Permutations int
	// Seed makes the permutation test reproducible.
	Seed uint64
}

// DefaultMantelOptions returns Pearson correlation without permutations.
func DefaultMantelOptions() MantelOptions {
	return MantelOptions{Correlation: Pearson, Seed: 42}
}

// MantelResult is the outcome of a Mantel test.
type MantelResult struct {
	Statistic float64
	// PValue is NaN when no permutations were run or the statistic is NaN.
	PValue float64
	N      int
}

const minMantelSize = 3

// Mantel correlates the condensed upper triangles of two distance matrices.
// Both matrices must share a size of at least three. A constant matrix gives
// a NaN statistic.
func Mantel(x, y *posematrix.DistanceMatrix, opts MantelOptions) (MantelResult, error) {
	if x == nil || y == nil {
		return MantelResult{}, errs.Invalid("mantel: nil distance matrix")
	}
	n := x.Size()
	if n != y.Size() {
		return MantelResult{}, errs.Invalid("mantel: matrix sizes differ (%d vs %d)", n, y.Size())
	}
	if n < minMantelSize {
		return MantelResult{}, errs.Invalid("mantel: need at least %d points, got %d", minMantelSize, n)
	}

	xc, yc := x.Condensed(), y.Condensed()
	res := MantelResult{
		Statistic: correlate(xc, yc, opts.Correlation),
		PValue:    math.NaN(),
		N:         n,
	}
	if opts.Permutations <= 0 || math.IsNaN(res.Statistic) {
		return res, nil
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	permuted := make([]float64, len(xc))
	extreme := 0
	for range opts.Permutations {
		rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		k := 0
		for i := range n {
			for j := i + 1; j < n; j++ {
				permuted[k] = x.D.At(perm[i], perm[j])
				k++
			}
		}
		if math.Abs(correlate(permuted, yc, opts.Correlation)) >= math.Abs(res.Statistic) {
			extreme++
		}
	}
	res.PValue = float64(extreme+1) / float64(opts.Permutations+1)
	return res, nil
}

func correlate(x, y []float64, c Correlation) float64 {
	if c == Spearman {
		return stat.Correlation(rank(x), rank(y), nil)
	}
	return stat.Correlation(x, y, nil)
}

// rank assigns 1-based ranks, averaging ties.
func rank(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case values[a] < values[b]:
			return -1
		case values[a] > values[b]:
			return 1
		}
		return 0
	})

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
