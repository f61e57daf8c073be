package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/answerhunter/internal/client"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

func newClient(cmd *cli.Command) *client.Client {
	return client.New(cmd.String("server"), cmd.Duration("request-timeout"))
}

func askAction(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return errors.New("ask needs a question")
	}

	c := newClient(cmd)
	out := cmd.Root().Writer

	job, err := c.Submit(ctx, query, cmd.Int("num-results"))
	if err != nil {
		return fmt.Errorf("submitting query: %w", err)
	}
	if cmd.Bool("no-wait") {
		fmt.Fprintln(out, job.ID)
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	job, err = c.Wait(waitCtx, job.ID, cmd.Duration("poll-interval"))
	if err != nil {
		return fmt.Errorf("waiting for query: %w", err)
	}

	if cmd.Bool("json") {
		return printJSON(out, job)
	}
	return printJob(out, job)
}

func getAction(ctx context.Context, cmd *cli.Command) error {
	id, err := uuid.Parse(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("get needs a query ID: %w", err)
	}

	job, err := newClient(cmd).Get(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(out, job)
	}
	return printJob(out, job)
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newClient(cmd).Status(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.Root().Writer)
	table.Header("Metric", "Value")
	table.Append("active workers", strconv.Itoa(s.ActiveWorkerCount))
	table.Append("queued jobs", strconv.Itoa(s.QueuedJobCount))
	table.Append("total jobs", strconv.Itoa(s.TotalJobCount))
	for _, st := range models.AllJobStatuses {
		table.Append(string(st), strconv.Itoa(s.CountsByStatus[st]))
	}
	return table.Render()
}

func healthAction(ctx context.Context, cmd *cli.Command) error {
	h, err := newClient(cmd).Health(ctx)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "status: %s\n", h.Status)
	fmt.Fprintf(out, "credentials configured: %t\n", h.CredentialsConfigured)

	names := make([]string, 0, len(h.Services))
	for name := range h.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "%s: %s\n", name, h.Services[name])
	}
	return nil
}

// printJob renders a job for a terminal: the answer followed by numbered sources,
// the error for a failed job, or just the status while it is still running.
func printJob(w io.Writer, job *models.Job) error {
	switch job.Status {
	case models.JobStatusCompleted:
		if job.Answer != nil {
			fmt.Fprintln(w, *job.Answer)
		}
		if len(job.Sources) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Sources:")
			for i, s := range job.Sources {
				fmt.Fprintf(w, "  [%d] %s\n      %s\n", i+1, s.Title, s.URL)
			}
		}
		if job.ProcessingTime != nil {
			fmt.Fprintf(w, "\n(answered in %.1fs)\n", *job.ProcessingTime)
		}
		return nil
	case models.JobStatusFailed:
		msg := "unknown error"
		if job.Error != nil {
			msg = *job.Error
		}
		return fmt.Errorf("query %s failed: %s", job.ID, msg)
	default:
		fmt.Fprintf(w, "query %s is %s\n", job.ID, job.Status)
		return nil
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
