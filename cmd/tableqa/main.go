// Command tableqa answers natural-language questions about tabular data
// using a local LLM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/0xcro3dile/tableqa-go/internal/config"
)

const usage = `usage: tableqa <command> [flags]

commands:
  ask    answer one question about a dataset
  batch  answer every question of a YAML file, then export
  watch  answer questions for every dataset dropped into a directory
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	// .env is optional
	_ = godotenv.Load()

	if len(argv) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	cmd, args := argv[0], argv[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(os.Stdout, usage)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tableqa: %v\n", err)
		return 2
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger, os.Stdout)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return 1
	}
	defer a.close()

	switch cmd {
	case "ask":
		return runAsk(ctx, a, args, os.Stdout)
	case "batch":
		return runBatch(ctx, a, args, os.Stdout)
	case "watch":
		return runWatch(ctx, a, args)
	default:
		fmt.Fprintf(os.Stderr, "tableqa: unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}
