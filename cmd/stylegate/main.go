// Command stylegate runs the wardrobe model integration from the command line
// or as an HTTP service.
//
//	stylegate [-config path] <command> [flags]
//
// Commands:
//
//	extract   read model text on stdin and print the extraction result
//	terms     read an item as JSON on stdin and print search terms
//	analyze   analyze one or more garment photos
//	suggest   read an outfit request as JSON on stdin and print a suggestion
//	serve     run the HTTP API
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/leofalp/stylegate/internal/config"
	"github.com/leofalp/stylegate/internal/logging"

	_ "github.com/joho/godotenv/autoload"
)

var errUsage = errors.New("usage: stylegate [-config path] <extract|terms|analyze|suggest|serve> [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		slog.Error("stylegate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("stylegate", flag.ContinueOnError)
	configPath := global.String("config", "", "path to a TOML config file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "extract":
		return runExtract(cfg, rest, stdin, stdout)
	case "terms", "analyze", "suggest", "serve":
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}

	a, err := newApp(cfg, slog.Default())
	if err != nil {
		return err
	}

	switch command {
	case "terms":
		return a.runTerms(ctx, stdin, stdout)
	case "analyze":
		return a.runAnalyze(ctx, rest, stdout)
	case "suggest":
		return a.runSuggest(ctx, stdin, stdout)
	default:
		return a.runServe(ctx)
	}
}
