// Package posesource loads pose sequences produced by a pose detector.
package posesource

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/tensorplex-labs/choreo/internal/pose"
)

// Source yields a time-ordered pose sequence.
type Source interface {
	Load(ctx context.Context) (pose.Sequence, error)
}

// Document is the envelope detectors write: a frame list plus an optional
// path to the video the poses came from.
type Document struct {
	Video  string        `json:"video,omitempty"`
	Frames pose.Sequence `json:"frames"`
}

// Decode accepts either a Document or a bare JSON array of frames.
func Decode(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode poses: empty input")
	}
	if trimmed[0] == '[' {
		var frames pose.Sequence
		if err := sonic.Unmarshal(trimmed, &frames); err != nil {
			return nil, fmt.Errorf("decode poses: %w", err)
		}
		return &Document{Frames: frames}, nil
	}

	var doc Document
	if err := sonic.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode poses: %w", err)
	}
	return &doc, nil
}

// Encode writes doc as JSON.
func Encode(doc *Document) ([]byte, error) {
	return sonic.Marshal(doc)
}
