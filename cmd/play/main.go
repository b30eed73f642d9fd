package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
	"github.com/gokatarajesh/cloud-architect-quest/internal/game"
	"github.com/gokatarajesh/cloud-architect-quest/internal/logging"
	"github.com/gokatarajesh/cloud-architect-quest/internal/play"
)

func main() {
	var (
		file  = flag.String("catalog", "", "YAML catalog file (defaults to the bundled catalog)")
		level = flag.String("log-level", "warn", "Log level for diagnostics on stderr")
	)
	flag.Parse()

	logger := logging.New("quest-play", "local", logging.Options{Level: *level, Out: os.Stderr})

	cat, err := loadCatalog(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ctl := game.NewController(game.NewEngine(cat, nil))
	if err := play.New(ctl, os.Stdin, os.Stdout, logger).Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
