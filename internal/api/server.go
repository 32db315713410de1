// Package api serves the analysis pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/choreo/internal/config"
	"github.com/tensorplex-labs/choreo/internal/errs"
)

// ConfigFromEnv converts the environment server section.
func ConfigFromEnv(cfg config.ServerEnvConfig) *ServerConfig {
	return &ServerConfig{
		Host:      cfg.Host,
		Port:      cfg.Port,
		BodyLimit: cfg.BodySizeLimit,
	}
}

// NewServer creates a new analysis server
func NewServer(serverConfig *ServerConfig) *Server {
	if serverConfig == nil {
		serverConfig = &ServerConfig{}
	}
	if serverConfig.Host == "" {
		serverConfig.Host = DefaultServerHost
	}
	if serverConfig.Port == 0 {
		serverConfig.Port = DefaultServerPort
	}
	if serverConfig.BodyLimit == 0 {
		serverConfig.BodyLimit = DefaultBodyLimit
	}

	log.Info().
		Any("serverConfig", serverConfig).
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:               false,
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             serverConfig.BodyLimit,
	})

	app.Use(recover.New()) // add panic recovery
	app.Use(RequestIDMiddleware())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	whitelistedRoutes := []string{"/health"}
	app.Use(ZstdMiddleware(whitelistedRoutes))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(createResponse(HealthResponse{Status: "ok"}, nil))
	})

	return &Server{
		App:    app,
		config: serverConfig,
	}
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	// Status code defaults to 500
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a *fiber.Error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]any{}, err))
}

// statusFor maps handler errors to HTTP status codes.
func statusFor(err error) int {
	var e *fiber.Error
	switch {
	case errors.As(err, &e):
		return e.Code
	case errs.IsInvalid(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// RouteName is the path segment a request type is served under.
func RouteName[Req any]() string {
	var zero Req
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// ServeRoute registers handler under POST /<request type name>.
func ServeRoute[Req, Resp any](s *Server, handler RouterHandler[Req, Resp]) {
	route := "/" + RouteName[Req]()

	s.App.Post(route, func(c *fiber.Ctx) error {
		var req Req
		if err := c.BodyParser(&req); err != nil {
			log.Error().
				Err(err).
				Str("route", route).
				Msg("Failed to parse request body")
			return c.Status(fiber.StatusBadRequest).
				JSON(createResponse(map[string]any{}, err))
		}

		resp, err := handler(c, req)
		if err != nil {
			log.Error().
				Err(err).
				Str("route", route).
				Str("request_id", RequestID(c)).
				Msg("Handler returned error")
			var zero Resp
			return c.Status(statusFor(err)).JSON(createResponse(zero, err))
		}

		return c.JSON(createResponse(resp, nil))
	})
}

// Start listens until the app is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	log.Info().Str("addr", addr).Msg("Analysis server listening")
	return s.App.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}

// createResponse creates a StdResponse with the given body and error
func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return StdResponse[T]{
			Body:  body,
			Error: &errMsg,
		}
	}
	return StdResponse[T]{
		Body:  body,
		Error: nil,
	}
}
