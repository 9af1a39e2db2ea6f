// Package main provides the CMS API server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/firecms/cms/pkg/cmd"
	"github.com/firecms/cms/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	if err := cmd.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
		os.Exit(1)
	}

	flags := append([]cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
	}, cmd.CommonFlags()...)

	command := &cli.Command{
		Name:                  "cms-api",
		Usage:                 "Manage products, generate their pages and track document approvals",
		EnableShellCompletion: true,
		Flags:                 flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing CMS API")

			rt, err := cmd.NewRuntime(ctx, logger, command, "cms-api")
			if err != nil {
				return err
			}

			defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

			err = registerAuditLog(logger, rt.EventBus)
			if err != nil {
				return err
			}

			err = rt.EventBus.Subscribe(ctx)
			if err != nil {
				return fmt.Errorf("failed to subscribe to events: %w", err)
			}

			api := NewAPI(logger, rt.Products, rt.Approvals)

			return api.Start(command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
