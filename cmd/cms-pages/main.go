// Package main provides the cms-pages command for generating product pages offline.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/firecms/cms/pkg/cmd"
	cli "github.com/urfave/cli/v3"
)

func main() {
	if err := cmd.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
		os.Exit(1)
	}

	command := &cli.Command{
		Name:                  "cms-pages",
		Usage:                 "Generate static product detail pages",
		EnableShellCompletion: true,
		Flags:                 cmd.CommonFlags(),
		Commands: []*cli.Command{
			GenerateCommand(),
			GenerateAllCommand(),
			PreviewCommand(),
			ImportCommand(),
			ScheduleCommand(),
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
