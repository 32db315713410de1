package similarity

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity returns dot(a, b) / (|a| |b|). Vectors of different
// lengths or with zero norm are not comparable.
func CosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	dotProduct := floats.Dot(a, b)
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)

	if normA == 0 || normB == 0 {
		return 0, false
	}

	sim := dotProduct / (normA * normB)
	if math.IsNaN(sim) {
		return 0, false
	}
	return sim, true
}
