package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/choreo/internal/errs"
	"github.com/tensorplex-labs/choreo/internal/pose"
	"github.com/tensorplex-labs/choreo/internal/signal"
	"github.com/tensorplex-labs/choreo/internal/similarity"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigWith(context.Background(), envconfig.MapLookuper(nil))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)
	assert.Equal(t, 50, cfg.MinSamples)
	assert.Equal(t, 5, cfg.MinWindowLength)
	assert.Equal(t, 3.0, cfg.MaxMovementClip)
	assert.Equal(t, 8888, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ClientTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryWait)
	assert.Empty(t, cfg.DetectorURL)

	assert.Equal(t, similarity.Distance, cfg.Parsed.Method)
	assert.Equal(t, similarity.Pearson, cfg.Parsed.Correlation)
	assert.Equal(t, signal.Flat, cfg.Parsed.Window)
	assert.Equal(t, signal.Linear, cfg.Parsed.Interpolation)
	assert.Equal(t, DefaultStageFigureLists(), cfg.Parsed.FigureLists)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfigWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"SIMILARITY_METHOD":    "laplacian",
		"SMOOTHING_WINDOW":     "hanning",
		"INTERPOLATION":        "akima",
		"MANTEL_METHOD":        "spearman",
		"MIN_SAMPLES":          "12",
		"MOVEMENT_FIGURE_LIST": "figures",
		"SERVER_PORT":          "9000",
		"ENVIRONMENT":          "prod",
	}))
	require.NoError(t, err)

	assert.Equal(t, similarity.Laplacian, cfg.Parsed.Method)
	assert.Equal(t, similarity.Spearman, cfg.Parsed.Correlation)
	assert.Equal(t, signal.Hanning, cfg.Parsed.Window)
	assert.Equal(t, signal.Akima, cfg.Parsed.Interpolation)
	assert.Equal(t, pose.Raw, cfg.Parsed.FigureLists.Movement)
	assert.Equal(t, pose.Aligned, cfg.Parsed.FigureLists.Cluster)
	assert.Equal(t, 12, cfg.MinSamples)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "prod", cfg.Environment)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown method", map[string]string{"SIMILARITY_METHOD": "euclid"}},
		{"unknown window", map[string]string{"SMOOTHING_WINDOW": "kaiser"}},
		{"unknown figure list", map[string]string{"CLUSTER_FIGURE_LIST": "mirrored"}},
		{"threshold above one", map[string]string{"CONFIDENCE_THRESHOLD": "1.5"}},
		{"min samples too small", map[string]string{"MIN_SAMPLES": "1"}},
		{"no workers", map[string]string{"ANALYSIS_WORKERS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigWith(context.Background(), envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			assert.True(t, errs.IsInvalid(err))
		})
	}

	_, err := LoadConfigWith(context.Background(), envconfig.MapLookuper(map[string]string{"MIN_SAMPLES": "many"}))
	assert.Error(t, err, "unparsable number")
}
