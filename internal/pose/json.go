package pose

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// MarshalJSON encodes a keypoint as [x, y, confidence].
func (k Keypoint) MarshalJSON() ([]byte, error) {
	return sonic.Marshal([3]float64{k.X, k.Y, k.Confidence})
}

// UnmarshalJSON decodes a keypoint from [x, y, confidence].
func (k *Keypoint) UnmarshalJSON(data []byte) error {
	var values []float64
	if err := sonic.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("keypoint: %w", err)
	}
	if len(values) != 3 {
		return fmt.Errorf("keypoint: expected [x, y, confidence], got %d values", len(values))
	}
	k.X, k.Y, k.Confidence = values[0], values[1], values[2]
	return nil
}

type frameJSON struct {
	Time      float64 `json:"time"`
	Raw       *[]Pose `json:"figures,omitempty"`
	Aligned   *[]Pose `json:"aligned_figures,omitempty"`
	Flipped   *[]Pose `json:"flipped_figures,omitempty"`
	Zeroified *[]Pose `json:"zeroified_figures,omitempty"`
}

func (j *frameJSON) slot(list FigureList) **[]Pose {
	switch list {
	case Raw:
		return &j.Raw
	case Aligned:
		return &j.Aligned
	case Flipped:
		return &j.Flipped
	case Zeroified:
		return &j.Zeroified
	}
	return nil
}

// MarshalJSON writes every figure list the frame carries under its name.
func (f Frame) MarshalJSON() ([]byte, error) {
	out := frameJSON{Time: f.Time}
	for list, poses := range f.Figures {
		if dst := out.slot(list); dst != nil {
			*dst = &poses
		}
	}
	return sonic.Marshal(out)
}

// UnmarshalJSON reads a frame; absent lists stay absent so Poses can fall
// back to the raw list.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var in frameJSON
	if err := sonic.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	f.Time = in.Time
	f.Figures = make(map[FigureList][]Pose, len(figureListNames))
	for _, list := range FigureLists() {
		if src := *in.slot(list); src != nil {
			f.Figures[list] = *src
		}
	}
	return nil
}
