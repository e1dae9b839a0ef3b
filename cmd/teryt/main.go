package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cli.Command{
		Name:  "teryt",
		Usage: "Import the TERYT registry (TERC and SIMC) into a relational database",
		Commands: []*cli.Command{
			importCommand(),
			fetchCommand(),
			migrateCommand(),
			statsCommand(),
		},
	}

	if err := root.Run(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
