package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

// LoadDotEnv reads a .env file from the working directory into the environment.
// Variables already set win; a missing file is not an error.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// CommonFlags are shared by every binary that opens the stores.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Database connection URL for persistence (a directory, file://, or postgres://)",
			Value:   "file://./data",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "site-root",
			Usage:   "Root of the Next.js site the product pages are written into",
			Value:   ".",
			Sources: cli.EnvVars("SITE_ROOT"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for the product read cache (disabled when empty)",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (memory, kafka)",
			Value:   "memory",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers, used with --event-bus kafka",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
			Sources: cli.EnvVars("TRACING_ENABLED"),
		},
	}
}
