// Package logger provides a global logger for the application
package logger

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"go.uber.org/zap"
)

// Logger backs Sugar. It discards everything until Init runs.
var Logger = zap.NewNop()

// Options are the command line level overrides. At most one should be set;
// Debug wins over Trace, which wins over Info.
type Options struct {
	Debug bool
	Trace bool
	Info  bool
}

func environmentLevel(environment string) zerolog.Level {
	switch environment {
	case "dev", "test":
		log.Info().Str("environment", environment).Msg("Development/Test environment detected - enabling all log levels")
		return zerolog.TraceLevel
	case "prod":
		log.Info().Str("environment", environment).Msg("Production environment detected - enabling info level and above")
		return zerolog.InfoLevel
	default:
		log.Warn().Str("environment", environment).Msg("Unknown environment - defaulting to production log level (info and above)")
		return zerolog.InfoLevel
	}
}

// Level resolves the zerolog level for an environment name and overrides.
func Level(environment string, opts Options) zerolog.Level {
	logLevel := environmentLevel(environment)
	switch {
	case opts.Debug:
		logLevel = zerolog.DebugLevel
		log.Info().Msg("Debug flag detected - overriding environment log level")
	case opts.Trace:
		logLevel = zerolog.TraceLevel
		log.Info().Msg("Trace flag detected - overriding environment log level")
	case opts.Info:
		logLevel = zerolog.InfoLevel
		log.Info().Msg("Info flag detected - overriding environment log level")
	}
	return logLevel
}

func initLogger(opts Options) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Msg("No .env file found, using process environment")
		} else {
			log.Warn().Err(err).Msg("Error loading .env file")
		}
	}

	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if environment == "" {
		environment = "prod"
	}

	logLevel := Level(environment, opts)
	zerolog.SetGlobalLevel(logLevel)

	var (
		zl  *zap.Logger
		err error
	)
	if environment == "prod" {
		zl, err = zap.NewProduction()
	} else {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to build zap logger, keeping no-op logger")
	} else {
		Logger = zl
	}

	switch logLevel {
	case zerolog.DebugLevel:
		log.Debug().Str("environment", environment).Msg("Debug logging enabled")
	case zerolog.TraceLevel:
		log.Trace().Str("environment", environment).Msg("Trace logging enabled")
	case zerolog.InfoLevel:
		log.Info().Str("environment", environment).Msg("Info logging enabled")
	}
}

// Init initializes the logger with the configuration from the environment
// and the given level overrides.
// It sets up the global logger to use zerolog with console output.
// Example usage:
//
//	logger.Init(logger.Options{Debug: debug}) <- inside the root command's PersistentPreRun
//
// Then, `choreo analyze --debug poses.json`
func Init(opts Options) {
	initLogger(opts)
}

// Sugar returns a sugared logger for easier use
func Sugar() *zap.SugaredLogger {
	return Logger.Sugar()
}

// Sync flushes the zap logger.
func Sync() {
	_ = Logger.Sync()
}
