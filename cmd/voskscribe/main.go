package main

import (
	"context"
	"os"

	"github.com/voskscribe/voskscribe/internal/cli"
	"github.com/voskscribe/voskscribe/internal/engine"
	"github.com/voskscribe/voskscribe/internal/vosk"
	"go.uber.org/zap"
)

func main() {
	root := cli.NewRootCmd(func(logger *zap.Logger, verbose bool) engine.Engine {
		return vosk.NewEngine(logger, verbose)
	})
	os.Exit(cli.Execute(context.Background(), root, os.Args[1:], os.Stderr))
}
