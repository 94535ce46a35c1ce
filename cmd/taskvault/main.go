package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/taskvault/internal/app"
	"github.com/dmitrijs2005/taskvault/internal/buildinfo"
	"github.com/dmitrijs2005/taskvault/internal/cli"
	"github.com/dmitrijs2005/taskvault/internal/config"
	"github.com/dmitrijs2005/taskvault/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	cli.NewCLI(a).Run(ctx)

}
