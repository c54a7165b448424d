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
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/dartos"
	"github.com/poiesic/dartos/ai"
	"github.com/poiesic/dartos/chunk"
	"github.com/poiesic/dartos/core"
)

func main() {
	app := &cli.App{
		Name:  "dartos",
		Usage: "PDF document ingestion and retrieval system",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./dartos-db",
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "Path to the raw upload storage directory",
				Value: "./dartos-uploads",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "OpenAI-compatible service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.StringFlag{
				Name:  "llm-model",
				Usage: "Chat model name for answer generation",
				Value: "qwen2.5:3b",
			},
			&cli.BoolFlag{
				Name:  "no-fallback",
				Usage: "Fail instead of degrading when the embedding service is unreachable",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Chunk size in characters",
				Value: chunk.DefaultSize,
			},
			&cli.IntFlag{
				Name:  "chunk-overlap",
				Usage: "Chunk overlap in characters",
				Value: chunk.DefaultOverlap,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Upload one or more PDF files for processing",
				ArgsUsage: "<file.pdf> [file.pdf ...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "wait",
						Aliases: []string{"w"},
						Usage:   "Wait for processing to finish and report the outcome",
					},
				},
			},
			{
				Name:      "status",
				Usage:     "Show the processing status of a document",
				ArgsUsage: "<document-id>",
				Action:    statusCommand,
			},
			{
				Name:   "list",
				Usage:  "List all documents",
				Action: listCommand,
			},
			{
				Name:      "reindex",
				Usage:     "Re-run extraction and indexing for a document",
				ArgsUsage: "<document-id>",
				Action:    reindexCommand,
			},
			{
				Name:      "query",
				Usage:     "Ask a question over the indexed documents",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of context chunks to retrieve",
					},
					&cli.StringFlag{
						Name:  "instruction",
						Usage: "Custom system instruction for the language model",
					},
					&cli.BoolFlag{
						Name:  "show-context",
						Usage: "Print the retrieved chunks alongside the answer",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openService builds the Service from the global flags.
func openService(c *cli.Context) (*dartos.Service, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("llm-model")),
		ai.WithFallback(!c.Bool("no-fallback")),
	)

	return dartos.New(c.String("db"), c.String("data"),
		dartos.WithAIConfig(cfg),
		dartos.WithChunking(c.Int("chunk-size"), c.Int("chunk-overlap")),
	)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one PDF file is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	ids := make([]core.ID, 0, c.NArg())

	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		id, err := svc.Ingest(ctx, filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		fmt.Printf("%s\t%s\n", id, filepath.Base(path))
		ids = append(ids, id)
	}

	if !c.Bool("wait") {
		return nil
	}

	for _, id := range ids {
		doc, err := waitForResting(ctx, svc, id)
		if err != nil {
			return err
		}
		printDocument(doc)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document ID is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	doc, err := svc.Status(context.Background(), core.ID(c.Args().First()))
	if err != nil {
		return err
	}
	printDocument(doc)
	return nil
}

func listCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	docs, err := svc.Documents(context.Background())
	if err != nil {
		return err
	}

	for _, doc := range docs {
		fmt.Printf("%s\t%-10s\t%s\n", doc.Id, doc.Status, doc.Filename)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document ID is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	id := core.ID(c.Args().First())

	if err := svc.Reindex(ctx, id); err != nil {
		return err
	}

	doc, err := waitForResting(ctx, svc, id)
	if err != nil {
		return err
	}
	printDocument(doc)
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	question := strings.Join(c.Args().Slice(), " ")
	result, err := svc.Answer(context.Background(), question, c.String("instruction"), c.Int("top-k"))
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)

	if result.Degraded {
		fmt.Fprintln(os.Stderr, "\n(language model unavailable; showing retrieved passages)")
	}
	if c.Bool("show-context") || result.Degraded {
		for i, chunkText := range result.Chunks {
			fmt.Printf("\n[%d] %s\n", i+1, chunkText)
		}
	}
	return nil
}

// waitForResting polls until a document reaches a terminal status.
func waitForResting(ctx context.Context, svc *dartos.Service, id core.ID) (*core.Document, error) {
	for {
		doc, err := svc.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc.Status.Terminal() {
			return doc, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func printDocument(doc *core.Document) {
	fmt.Printf("id:       %s\n", doc.Id)
	fmt.Printf("file:     %s\n", doc.Filename)
	fmt.Printf("status:   %s (%s)\n", doc.Status, core.StatusDetail(doc.Status))
	if doc.ErrorMessage != "" {
		fmt.Printf("error:    %s\n", doc.ErrorMessage)
	}
	fmt.Printf("uploaded: %s\n", doc.CreatedAt.Format(time.RFC3339))
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
