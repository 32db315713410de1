package pose

// Slot is one (frame, figure) cell of a Grid.
type Slot struct {
	Pose    Pose
	Present bool
}

// Grid is a rectangular view over a sequence for one figure list. Every row
// has Figures() slots; figures that were not detected in a frame are absent
// slots rather than short rows.
type Grid struct {
	List  FigureList
	Times []float64
	Slots [][]Slot
}

// NewGrid builds the slot grid of seq for list.
func NewGrid(seq Sequence, list FigureList) *Grid {
	width := seq.FigureCount(list)
	g := &Grid{
		List:  list,
		Times: seq.Times(),
		Slots: make([][]Slot, len(seq)),
	}
	for f, frame := range seq {
		row := make([]Slot, width)
		for p := range width {
			if ps, ok := frame.Pose(list, p); ok {
				row[p] = Slot{Pose: ps, Present: true}
			}
		}
		g.Slots[f] = row
	}
	return g
}

// Frames is the number of rows.
func (g *Grid) Frames() int {
	return len(g.Slots)
}

// Figures is the number of slots per row.
func (g *Grid) Figures() int {
	if len(g.Slots) == 0 {
		return 0
	}
	return len(g.Slots[0])
}

// At returns the slot at (f, p); out-of-range coordinates yield an absent slot.
func (g *Grid) At(f, p int) Slot {
	if f < 0 || f >= len(g.Slots) || p < 0 || p >= len(g.Slots[f]) {
		return Slot{}
	}
	return g.Slots[f][p]
}

// Column returns figure p's slot in every frame.
func (g *Grid) Column(p int) []Slot {
	out := make([]Slot, len(g.Slots))
	for f := range g.Slots {
		out[f] = g.At(f, p)
	}
	return out
}

// Present returns the present slots of frame f with their figure indices.
func (g *Grid) Present(f int) ([]int, []Pose) {
	var (
		figures []int
		poses   []Pose
	)
	if f < 0 || f >= len(g.Slots) {
		return nil, nil
	}
	for p, slot := range g.Slots[f] {
		if slot.Present {
			figures = append(figures, p)
			poses = append(poses, slot.Pose)
		}
	}
	return figures, poses
}
