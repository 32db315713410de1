package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// RequestIDMiddleware tags every request with an id, reusing the caller's
// x-request-id when present. The id is echoed in the response headers.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(RequestIDHeader, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDHeader).(string)
	return id
}

// ZstdMiddleware decompresses zstd request bodies and compresses responses
// for clients that accept zstd.
func ZstdMiddleware(whitelistedRoutes []string) fiber.Handler {
	if whitelistedRoutes == nil {
		whitelistedRoutes = []string{"/health"}
		log.Debug().
			Any("default", whitelistedRoutes).
			Msg("Whitelisted routes not specified, using default whitelist")
	}

	decoder, decErr := zstd.NewReader(nil)
	encoder, encErr := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if decErr != nil || encErr != nil {
		log.Error().AnErr("decoder", decErr).AnErr("encoder", encErr).Msg("Failed to create zstd codec")
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()

		// Check if route is whitelisted
		for _, route := range whitelistedRoutes {
			if path == route {
				return c.Next()
			}
		}

		// Handle request decompression
		if strings.EqualFold(c.Get(fiber.HeaderContentEncoding), "zstd") {
			body := c.Request().Body()
			if len(body) > 0 {
				if decoder == nil {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(
						createResponse(map[string]any{}, fmt.Errorf("zstd decoding unavailable")))
				}
				decompressed, err := decoder.DecodeAll(body, nil)
				if err != nil {
					log.Err(err).Msg("Failed to decompress request")
					return c.Status(fiber.StatusBadRequest).JSON(
						createResponse(
							map[string]any{},
							fmt.Errorf("failed to decompress zstd data: %w", err),
						))
				}

				c.Request().SetBody(decompressed)
				c.Request().Header.Del(fiber.HeaderContentEncoding)
				log.Debug().Msg("Request body decompressed")
			}
		}

		// Process the request
		if err := c.Next(); err != nil {
			return err
		}

		// Handle response compression
		acceptEncoding := c.Get(fiber.HeaderAcceptEncoding)
		if encoder != nil && strings.Contains(strings.ToLower(acceptEncoding), "zstd") {
			responseBody := c.Response().Body()
			if len(responseBody) > 0 && len(c.Response().Header.Peek(fiber.HeaderContentEncoding)) == 0 {
				compressed := encoder.EncodeAll(responseBody, nil)
				c.Response().SetBody(compressed)
				c.Set(fiber.HeaderContentEncoding, "zstd")
				c.Set(fiber.HeaderContentLength, fmt.Sprintf("%d", len(compressed)))

				log.Debug().
					Int("original_size", len(responseBody)).
					Int("compressed_size", len(compressed)).
					Msg("Response body compressed")
			}
		}

		return nil
	}
}
