// Package client calls a choreo analysis server.
package client

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout applies when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config is the client configuration.
type Config struct {
	Timeout         time.Duration
	RetryCount      int
	RetryWait       time.Duration
	ZstdCompression bool
}

type Client struct {
	config      Config
	restyClient *resty.Client
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// New creates a client. Zstd encoders are created once and reused.
func New(config Config) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	restyClient := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(config.RetryWait).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	client := &Client{
		config:      config,
		restyClient: restyClient,
	}

	if config.ZstdCompression {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		client.encoder = encoder

		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		client.decoder = decoder
	}
	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

func (c *Client) buildHeaders() map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if c.config.ZstdCompression {
		headers["Accept-Encoding"] = "zstd"
		headers["Content-Encoding"] = "zstd"
	}
	return headers
}

// endpoint builds the route from the request's type name.
func endpoint(baseURL string, request any) string {
	requestType := reflect.TypeOf(request)
	if requestType.Kind() == reflect.Pointer {
		requestType = requestType.Elem()
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + requestType.Name()
}

func (c *Client) makeRequest(ctx context.Context, baseURL string, request any, response any) error {
	if response == nil || reflect.ValueOf(response).Kind() != reflect.Pointer ||
		reflect.ValueOf(response).IsNil() {
		return fmt.Errorf("invalid response: must be a non-nil pointer")
	}

	url := endpoint(baseURL, request)
	headers := c.buildHeaders()
	req := c.restyClient.R().
		SetContext(ctx).
		SetHeaders(headers)

	log.Trace().
		Interface("headers", headers).
		Str("endpoint", url).
		Msg("Request headers")

	if c.encoder != nil {
		jsonData, err := sonic.Marshal(request)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		req = req.SetBody(c.encoder.EncodeAll(jsonData, nil))
	} else {
		req = req.SetBody(request)
	}

	resp, err := req.Post(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	// Handle response decompression if needed (before error checking)
	responseBody := resp.Body()
	if c.decoder != nil && resp.Header().Get("Content-Encoding") == "zstd" {
		decompressed, err := c.decoder.DecodeAll(responseBody, nil)
		if err != nil {
			return fmt.Errorf("failed to decompress response: %w", err)
		}
		responseBody = decompressed
	}

	// Parse the StdResponse wrapper manually
	responseType := reflect.TypeOf(response).Elem()
	stdResponseType := reflect.StructOf([]reflect.StructField{
		{Name: "Body", Type: responseType, Tag: `json:"body"`},
		{Name: "Error", Type: reflect.TypeOf((*string)(nil)), Tag: `json:"error,omitempty"`},
	})

	stdResponseValue := reflect.New(stdResponseType)
	if err := sonic.Unmarshal(responseBody, stdResponseValue.Interface()); err != nil {
		if resp.IsError() {
			return fmt.Errorf("HTTP error %d: %s", resp.StatusCode(), string(responseBody))
		}
		return fmt.Errorf("failed to unmarshal StdResponse: %w", err)
	}

	// Check for application-level errors
	errorField := stdResponseValue.Elem().FieldByName("Error")
	if !errorField.IsNil() {
		return &ServerError{Status: resp.StatusCode(), Message: errorField.Elem().String()}
	}
	if resp.IsError() {
		return fmt.Errorf("HTTP error %d: %s", resp.StatusCode(), string(responseBody))
	}

	// Extract the body and set it to the response
	bodyField := stdResponseValue.Elem().FieldByName("Body")
	reflect.ValueOf(response).Elem().Set(bodyField)
	return nil
}

// ServerError is an error reported inside the response envelope.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// Send posts request to baseURL/<request type name> and decodes the
// envelope's body into response.
func (c *Client) Send(ctx context.Context, baseURL string, request any, response any) error {
	return c.makeRequest(ctx, baseURL, request, response)
}

// Call is Send with the response type as a type parameter.
func Call[Req, Resp any](ctx context.Context, c *Client, baseURL string, request Req) (Resp, error) {
	var resp Resp
	err := c.makeRequest(ctx, baseURL, request, &resp)
	return resp, err
}

// SendMany posts each request to its base URL concurrently. The returned
// slice holds one error (or nil) per request.
func SendMany[Req, Resp any](
	ctx context.Context,
	c *Client,
	baseURLs []string,
	requests []Req,
	responses []*Resp,
) []error {
	if len(baseURLs) != len(requests) || len(baseURLs) != len(responses) {
		log.Error().Msg("baseURLs, requests, and responses must have the same length")
		return []error{fmt.Errorf("baseURLs, requests, and responses must have the same length")}
	}

	errors := make([]error, len(baseURLs))
	var wg sync.WaitGroup
	wg.Add(len(baseURLs))

	for i, url := range baseURLs {
		go func(index int, url string, request Req, response *Resp) {
			defer wg.Done()
			if err := c.makeRequest(ctx, url, request, response); err != nil {
				errors[index] = fmt.Errorf("error in request %d: %w", index, err)
			}
		}(i, url, requests[i], responses[i])
	}

	wg.Wait()
	return errors
}

// Health reports whether the server answers its health route.
func (c *Client) Health(ctx context.Context, baseURL string) error {
	resp, err := c.restyClient.R().
		SetContext(ctx).
		Get(strings.TrimSuffix(baseURL, "/") + "/health")
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("health check: HTTP %d", resp.StatusCode())
	}
	return nil
}
