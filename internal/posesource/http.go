package posesource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/choreo/internal/pose"
)

// HTTPConfig configures HTTPSource.
type HTTPConfig struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultHTTPConfig returns a 30s timeout with three retries.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:      30 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
	}
}

// HTTPSource fetches a pose document from a detector service with GET.
// Responses may be zstd-encoded.
type HTTPSource struct {
	URL    string
	client *resty.Client
}

// NewHTTPSource builds a resty client on top of a retrying transport.
func NewHTTPSource(url string, cfg HTTPConfig) *HTTPSource {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Encoding", "zstd")

	log.Debug().
		Str("url", url).
		Int("retry_max", cfg.RetryMax).
		Str("timeout", cfg.Timeout.String()).
		Msg("detector client initialized")

	return &HTTPSource{URL: url, client: client}
}

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) (pose.Sequence, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Frames, nil
}

// Document fetches the whole envelope.
func (s *HTTPSource) Document(ctx context.Context) (*Document, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch poses: %w", err)
	}

	body := resp.Body()
	if strings.EqualFold(resp.Header().Get("Content-Encoding"), "zstd") {
		if body, err = Decompress(body); err != nil {
			return nil, fmt.Errorf("failed to decompress response: %w", err)
		}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode(), string(body))
	}

	doc, err := Decode(body)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("url", s.URL).
		Int("status_code", resp.StatusCode()).
		Int("frames", len(doc.Frames)).
		Msg("fetched poses from detector")
	return doc, nil
}
