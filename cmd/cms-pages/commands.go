package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/firecms/cms/pkg/cmd"
	"github.com/firecms/cms/pkg/log"
	"github.com/firecms/cms/pkg/pagegen"
	"github.com/firecms/cms/pkg/scheduler"
	"github.com/firecms/cms/pkg/services"
	cli "github.com/urfave/cli/v3"
)

var errMissingArgument = errors.New("missing argument")

// withRuntime sets up logging and the runtime, runs fn, then closes the runtime.
func withRuntime(
	ctx context.Context,
	command *cli.Command,
	fn func(ctx context.Context, logger *slog.Logger, rt *cmd.Runtime) error,
) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("cms-pages").With("command", command.Name)

	rt, err := cmd.NewRuntime(ctx, logger, command, "cms-pages")
	if err != nil {
		return err
	}

	defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

	return fn(ctx, logger, rt)
}

func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"g"},
		Usage:     "Generate the pages of the given products",
		ArgsUsage: "<product-id>...",
		Action: func(ctx context.Context, command *cli.Command) error {
			ids := command.Args().Slice()
			if len(ids) == 0 {
				return fmt.Errorf("%w: at least one product id", errMissingArgument)
			}

			return withRuntime(ctx, command, func(ctx context.Context, _ *slog.Logger, rt *cmd.Runtime) error {
				return generatePages(ctx, rt.Products, ids, command.Root().Writer)
			})
		},
	}
}

func GenerateAllCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate-all",
		Usage: "Regenerate the page of every stored product",
		Action: func(ctx context.Context, command *cli.Command) error {
			return withRuntime(ctx, command, func(ctx context.Context, _ *slog.Logger, rt *cmd.Runtime) error {
				return generateAll(ctx, rt.Products, command.Root().Writer)
			})
		},
	}
}

func PreviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Print a product's page files without writing them",
		ArgsUsage: "<product-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("%w: product id", errMissingArgument)
			}

			return withRuntime(ctx, command, func(ctx context.Context, _ *slog.Logger, rt *cmd.Runtime) error {
				return previewPage(ctx, rt.Products, id, command.Root().Writer)
			})
		},
	}
}

func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Store the products of a JSON array file",
		ArgsUsage: "<file.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "generate",
				Usage: "Regenerate every page after a successful import",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return fmt.Errorf("%w: import file", errMissingArgument)
			}

			return withRuntime(ctx, command, func(ctx context.Context, _ *slog.Logger, rt *cmd.Runtime) error {
				err := importProducts(ctx, rt.Products, path, command.Root().Writer)
				if err != nil || !command.Bool("generate") {
					return err
				}

				return generateAll(ctx, rt.Products, command.Root().Writer)
			})
		},
	}
}

func ScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Regenerate every page on a cron schedule until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Standard 5-field cron expression",
				Value:   "0 3 * * *",
				Sources: cli.EnvVars("REGENERATE_CRON"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Upper bound for a single regeneration run (0 for none)",
				Value: 30 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "run-now",
				Usage: "Run once immediately before waiting for the schedule",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withRuntime(ctx, command, func(ctx context.Context, logger *slog.Logger, rt *cmd.Runtime) error {
				lockPath := filepath.Join(command.String("site-root"), scheduler.LockFileName)

				regenerator, err := scheduler.NewRegenerator(logger, rt.Products, command.String("cron"), lockPath, command.Duration("timeout"))
				if err != nil {
					return err
				}

				if command.Bool("run-now") {
					if _, err := regenerator.RunOnce(ctx); err != nil {
						logger.ErrorContext(ctx, "initial regeneration failed", "error", err)
					}
				}

				err = regenerator.Start(ctx)
				if err != nil {
					return err
				}

				<-ctx.Done()

				logger.Info("stopping regenerator")

				stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
				defer cancel()

				return regenerator.Stop(stopCtx)
			})
		},
	}
}

// generatePages generates each id in turn; a failure does not stop the rest.
func generatePages(ctx context.Context, products *services.Product, ids []string, out io.Writer) error {
	var failures []error

	for _, id := range ids {
		err := products.GeneratePage(ctx, id)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", id, err))

			continue
		}

		_, _ = fmt.Fprintf(out, "generated %s\n", products.PageDir(id))
	}

	return errors.Join(failures...)
}

func generateAll(ctx context.Context, products *services.Product, out io.Writer) error {
	generated, err := products.GenerateAll(ctx)

	_, _ = fmt.Fprintf(out, "generated %d pages\n", generated)

	return err
}

func previewPage(ctx context.Context, products *services.Product, id string, out io.Writer) error {
	page, err := products.PreviewPage(ctx, id)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "// %s\n%s\n// %s\n%s", pagegen.EntryFileName, page.Entry, pagegen.ClientFileName, page.Client)

	return err
}

func importProducts(ctx context.Context, products *services.Product, path string, out io.Writer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	imported, err := products.Import(ctx, raw)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "imported %d products\n", imported)

	return nil
}
