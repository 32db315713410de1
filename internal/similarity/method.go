// Package similarity scores pairs of pose representations and builds
// pairwise similarity matrices over pose sequences.
package similarity

import (
	"strings"

	"github.com/tensorplex-labs/choreo/internal/errs"
)

// Method selects how two poses are compared.
type Method int

const (
	// Distance correlates the keypoint distance matrices (Mantel statistic).
	Distance Method = iota
	// Cosine compares unit-normalized coordinate vectors.
	Cosine
	// Laplacian compares skeleton graph Laplacians.
	Laplacian
)

var methodNames = [...]string{
	Distance:  "distance",
	Cosine:    "cosine",
	Laplacian: "laplacian",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "unknown"
	}
	return methodNames[m]
}

// ParseMethod maps "distance", "cosine" or "laplacian" to a Method.
func ParseMethod(name string) (Method, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return Distance, errs.Invalid("unknown similarity method %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
