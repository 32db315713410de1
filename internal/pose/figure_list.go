package pose

import (
	"strings"

	"github.com/tensorplex-labs/choreo/internal/errs"
)

// FigureList selects which per-frame pose variant a stage reads.
type FigureList int

const (
	// Raw holds poses as detected.
	Raw FigureList = iota
	// Aligned holds poses rotated and scaled to a common frame.
	Aligned
	// Flipped holds aligned poses mirrored to a canonical facing.
	Flipped
	// Zeroified holds poses translated so their origin is zero.
	Zeroified
)

var figureListNames = [...]string{
	Raw:       "figures",
	Aligned:   "aligned_figures",
	Flipped:   "flipped_figures",
	Zeroified: "zeroified_figures",
}

// FigureLists enumerates every variant in declaration order.
func FigureLists() []FigureList {
	return []FigureList{Raw, Aligned, Flipped, Zeroified}
}

func (l FigureList) String() string {
	if l < 0 || int(l) >= len(figureListNames) {
		return "unknown"
	}
	return figureListNames[l]
}

// ParseFigureList maps a list name such as "aligned_figures" to its value.
func ParseFigureList(name string) (FigureList, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range figureListNames {
		if n == name {
			return FigureList(i), nil
		}
	}
	return Raw, errs.Invalid("unknown figure list %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (l FigureList) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *FigureList) UnmarshalText(text []byte) error {
	parsed, err := ParseFigureList(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
