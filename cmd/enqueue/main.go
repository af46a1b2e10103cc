// Package main provides a CLI tool for publishing test messages onto the
// configured queue backend.
//
// Usage:
//
//	enqueue --to recipient@example.com --subject "Test" --html "<p>Hello</p>"
//	enqueue --config ./config --count 10 --to recipient@example.com
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/togglelabs/mail-worker/internal/config"
	"github.com/togglelabs/mail-worker/internal/delivery"
	"github.com/togglelabs/mail-worker/internal/queue"
)

type options struct {
	configDir string
	to        string
	subject   string
	html      string
	count     int
}

func main() {
	opts := parseFlags()

	if opts.to == "" {
		fmt.Fprintln(os.Stderr, "error: --to is required")
		flag.Usage()
		os.Exit(2)
	}
	if opts.count < 1 {
		fmt.Fprintln(os.Stderr, "error: --count must be at least 1")
		os.Exit(2)
	}

	cfg, err := config.Load(opts.configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Queue.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid queue config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	enqueuer, _, _, err := queue.NewQueue(ctx, cfg.Queue, nil, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create queue: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Enqueue\n")
	fmt.Printf("  Backend:  %s\n", cfg.Queue.Type)
	fmt.Printf("  To:       %s\n", opts.to)
	fmt.Printf("  Count:    %d\n", opts.count)
	fmt.Println()

	failed := 0
	for i := range opts.count {
		seq := i + 1
		subject := opts.subject
		if opts.count > 1 {
			subject = fmt.Sprintf("%s [%d/%d]", opts.subject, seq, opts.count)
		}

		body, err := json.Marshal(delivery.InboundMessage{
			Recipient: opts.to,
			Subject:   subject,
			BodyHTML:  opts.html,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal message: %v\n", err)
			os.Exit(1)
		}

		id, err := enqueuer.Enqueue(ctx, body)
		if err != nil {
			failed++
			fmt.Printf("  [%d/%d] FAIL: %v\n", seq, opts.count, err)
			continue
		}
		fmt.Printf("  [%d/%d] OK   %s\n", seq, opts.count, id)
	}

	fmt.Println()
	fmt.Printf("Results: %d enqueued, %d failed\n", opts.count-failed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configDir, "config", "config", "Directory containing config.yaml")
	flag.StringVar(&opts.to, "to", "", "Recipient email address")
	flag.StringVar(&opts.subject, "subject", "Test Email "+uuid.NewString()[:8], "Email subject")
	flag.StringVar(&opts.html, "html", "<p>This is a test email sent by mail-worker enqueue.</p>", "HTML body")
	flag.IntVar(&opts.count, "count", 1, "Number of messages to enqueue")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: enqueue [options]\n\n")
		fmt.Fprintf(os.Stderr, "Publishes test messages onto the configured mail-worker queue.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return opts
}
