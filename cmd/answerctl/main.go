// Command answerctl submits questions to an answerhunter server and prints
// the cited answers.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := newCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "answerctl",
		Usage:  "Ask an answerhunter server questions and read cited answers",
		Writer: w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "answerhunter base URL",
				Value:   "http://localhost:8000",
				Sources: cli.EnvVars("ANSWERHUNTER_URL"),
			},
			&cli.DurationFlag{
				Name:  "request-timeout",
				Usage: "timeout for each HTTP request",
				Value: 15 * time.Second,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Submit a question and wait for the answer",
				ArgsUsage: "<question>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "num-results",
						Aliases: []string{"n"},
						Usage:   "number of sources to gather (server default when 0)",
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "how often to poll for the result",
						Value: time.Second,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "give up waiting after this long",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-wait",
						Usage: "print the query ID and exit without polling",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "print the raw job as JSON",
					},
				},
				Action: askAction,
			},
			{
				Name:      "get",
				Usage:     "Show the current state of a query",
				ArgsUsage: "<query-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "print the raw job as JSON",
					},
				},
				Action: getAction,
			},
			{
				Name:   "status",
				Usage:  "Show worker and job counters",
				Action: statusAction,
			},
			{
				Name:   "health",
				Usage:  "Show server health",
				Action: healthAction,
			},
		},
	}
}
