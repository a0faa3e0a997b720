// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/poiesic/indexfeed/config"
	"github.com/poiesic/indexfeed/deadletter"
	"github.com/poiesic/indexfeed/dispatch"
	"github.com/poiesic/indexfeed/document"
	"github.com/poiesic/indexfeed/fetch"
	"github.com/poiesic/indexfeed/fetch/s3"
	"github.com/poiesic/indexfeed/metrics"
	"github.com/poiesic/indexfeed/queue"
	"github.com/poiesic/indexfeed/sink/elastic"
)

func main() {
	app := &cli.App{
		Name:  "indexfeed",
		Usage: "Index object-store change notifications into Elasticsearch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "lambda",
				Usage:  "Run as a hosted function handling queued notifications",
				Action: lambdaCommand,
			},
			{
				Name:      "process",
				Usage:     "Process a notification batch from a JSON file",
				ArgsUsage: "EVENT_FILE",
				Action:    processCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "deadline",
						Usage: "Overall time budget for the batch",
						Value: 15 * time.Minute,
					},
				},
			},
			{
				Name:   "deadletters",
				Usage:  "Print all recorded dead letters as JSON lines",
				Action: deadlettersCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the dead-letter store directory",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// buildDispatcher assembles the pipeline from environment configuration.
// The returned cleanup releases the worker pool and any dead-letter store.
func buildDispatcher(ctx context.Context, cfg *config.Config) (*dispatch.Dispatcher, func(), error) {
	store, err := s3.NewStore(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, nil, fmt.Errorf("creating object store: %w", err)
	}

	sink := elastic.NewSink(elastic.Config{
		Host:      cfg.ESHost,
		Username:  cfg.ESUsername,
		Password:  cfg.ESPassword,
		RateLimit: rate.Limit(cfg.BulkRateLimit),
	})

	queueOpts := []queue.Option{queue.WithMonitor(metrics.NewMonitor())}
	var deadLetters *deadletter.Store
	if cfg.DeadLetterPath != "" {
		deadLetters, err = deadletter.Open(cfg.DeadLetterPath, false)
		if err != nil {
			return nil, nil, fmt.Errorf("opening dead-letter store: %w", err)
		}
		queueOpts = append(queueOpts, queue.WithDeadLetter(deadLetters))
	}

	dispatcher, err := dispatch.NewDispatcher(store, sink,
		dispatch.WithWorkers(cfg.Workers),
		dispatch.WithQueueOptions(queueOpts...),
		dispatch.WithFetchOptions(fetch.WithRetryHook(metrics.FetchRetried)),
		dispatch.WithRecordFailureHook(metrics.RecordFailed),
		dispatch.WithBuilder(document.NewBuilder(
			document.WithSystemMetaKey(cfg.SystemMetaKey),
		)),
	)
	if err != nil {
		if deadLetters != nil {
			deadLetters.Close()
		}
		return nil, nil, fmt.Errorf("creating dispatcher: %w", err)
	}

	cleanup := func() {
		dispatcher.Close()
		if deadLetters != nil {
			deadLetters.Close()
		}
	}
	return dispatcher, cleanup, nil
}

func lambdaCommand(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dispatcher, cleanup, err := buildDispatcher(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	lambda.Start(func(ctx context.Context, event awsevents.SQSEvent) error {
		return dispatcher.Handle(ctx, event)
	})
	return nil
}

func processCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one event file argument")
	}

	raw, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("reading event file: %w", err)
	}
	var event awsevents.SQSEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("decoding event file: %w", err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("deadline"))
	defer cancel()

	dispatcher, cleanup, err := buildDispatcher(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := dispatcher.Handle(ctx, event); err != nil {
		return fmt.Errorf("processing batch: %w", err)
	}
	return nil
}

func deadlettersCommand(c *cli.Context) error {
	store, err := deadletter.Open(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("opening dead-letter store: %w", err)
	}
	defer store.Close()

	encoder := json.NewEncoder(os.Stdout)
	return store.Each(context.Background(), func(r *deadletter.Record) error {
		return encoder.Encode(r)
	})
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
