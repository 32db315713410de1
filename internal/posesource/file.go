package posesource

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/choreo/internal/pose"
)

// FileSource reads a pose document from disk. Paths ending in ".zst" are
// zstd-decompressed first.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (pose.Sequence, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Frames, nil
}

// Document reads the whole envelope, including the video path.
func (s *FileSource) Document(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read poses: %w", err)
	}
	if IsCompressed(s.Path) {
		if data, err = Decompress(data); err != nil {
			return nil, fmt.Errorf("read poses %s: %w", s.Path, err)
		}
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("read poses %s: %w", s.Path, err)
	}
	log.Debug().
		Str("path", s.Path).
		Int("frames", len(doc.Frames)).
		Msg("loaded pose file")
	return doc, nil
}

// IsCompressed reports whether path names a zstd file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// Decompress inflates a zstd frame.
func Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}

// Compress deflates data into a single zstd frame.
func Compress(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}
