package main

import (
	"fmt"
	"os"

	"github.com/rileycx/granola-export/config"
	"github.com/rileycx/granola-export/internal/cli"
	"github.com/rileycx/granola-export/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	deps := &cli.Dependencies{
		Config: cfg,
	}
	defer func() {
		if deps.App != nil {
			_ = deps.App.Close()
		}
	}()

	return cli.NewRootCmd(deps).Execute()
}
