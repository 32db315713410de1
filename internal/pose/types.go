// Package pose defines the pose sequence data model consumed by every
// analysis stage: keypoints, poses, frames and the figure lists a detector
// emits for each frame.
package pose

import (
	"math"
)

// Keypoint is one detected body landmark.
type Keypoint struct {
	X          float64
	Y          float64
	Confidence float64
}

// Pose is the ordered keypoint list of one figure in one frame. An empty
// pose means the figure was not detected.
type Pose []Keypoint

// Empty reports whether the pose carries no keypoints.
func (p Pose) Empty() bool {
	return len(p) == 0
}

// MeanConfidence is the arithmetic mean of the keypoint confidences, NaN for
// an empty pose.
func (p Pose) MeanConfidence() float64 {
	if len(p) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, kp := range p {
		sum += kp.Confidence
	}
	return sum / float64(len(p))
}

// XY flattens the pose into x0, y0, x1, y1, ...
func (p Pose) XY() []float64 {
	out := make([]float64, 0, 2*len(p))
	for _, kp := range p {
		out = append(out, kp.X, kp.Y)
	}
	return out
}

// Flat flattens the pose into x0, y0, c0, x1, y1, c1, ...
func (p Pose) Flat() []float64 {
	out := make([]float64, 0, 3*len(p))
	for _, kp := range p {
		out = append(out, kp.X, kp.Y, kp.Confidence)
	}
	return out
}

// FromFlat rebuilds a pose from x, y, confidence triples. A trailing partial
// triple is ignored.
func FromFlat(values []float64) Pose {
	p := make(Pose, 0, len(values)/3)
	for i := 0; i+2 < len(values); i += 3 {
		p = append(p, Keypoint{X: values[i], Y: values[i+1], Confidence: values[i+2]})
	}
	return p
}

// Frame is one video frame: its timestamp in seconds and the figure lists
// produced for it.
type Frame struct {
	Time    float64
	Figures map[FigureList][]Pose
}

// NewFrame creates a frame carrying the raw figure list only.
func NewFrame(t float64, figures ...Pose) Frame {
	return Frame{
		Time:    t,
		Figures: map[FigureList][]Pose{Raw: figures},
	}
}

// Poses returns the requested figure list. Frames that never received a
// normalized variant fall back to the raw list.
func (f Frame) Poses(list FigureList) []Pose {
	if poses, ok := f.Figures[list]; ok {
		return poses
	}
	return f.Figures[Raw]
}

// Pose returns the pose of figure p in the requested list. The second value
// is false when p is out of range or the figure was not detected.
func (f Frame) Pose(list FigureList, p int) (Pose, bool) {
	poses := f.Poses(list)
	if p < 0 || p >= len(poses) || poses[p].Empty() {
		return nil, false
	}
	return poses[p], true
}

// Sequence is a time-ordered list of frames.
type Sequence []Frame

// FigureCount is the length of the longest figure list across all frames.
func (s Sequence) FigureCount(list FigureList) int {
	maxFigures := 0
	for _, frame := range s {
		maxFigures = max(maxFigures, len(frame.Poses(list)))
	}
	return maxFigures
}

// Times returns the frame timestamps.
func (s Sequence) Times() []float64 {
	out := make([]float64, len(s))
	for i, frame := range s {
		out[i] = frame.Time
	}
	return out
}
