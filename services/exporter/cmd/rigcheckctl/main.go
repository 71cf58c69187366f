package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rigcheck/pkg/db"
	gos3 "rigcheck/pkg/s3"
	"rigcheck/services/archive"
	"rigcheck/services/artifacts"
	"rigcheck/services/checklist"
	"rigcheck/services/exporter"
	"rigcheck/services/report"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rigcheckctl",
		Short:         "Utility for exporting and managing inspection artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newLinkCommand())
	cmd.AddCommand(newSweepCommand())
	return cmd
}

// buildStore assembles an artifact store over a raw pgx pool. The CLI skips
// the ORM stack the server uses; the scany helpers are enough here.
func buildStore(ctx context.Context) (*artifacts.Store, func(), error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		return nil, nil, errors.New("DB_DSN is required")
	}
	bucket := strings.TrimSpace(os.Getenv("S3_BUCKET"))
	if bucket == "" {
		return nil, nil, errors.New("S3_BUCKET is required")
	}

	pool, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	s3Client, err := gos3.NewClientFromEnv()
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("init s3 client: %w", err)
	}

	records, err := artifacts.NewPgxRecords(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	blobs, err := artifacts.NewS3Blobs(s3Client, bucket)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	store, err := artifacts.New(artifacts.Config{
		Records: records,
		Blobs:   blobs,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

func newExportCommand() *cobra.Command {
	var (
		file      string
		emailSent bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render, package and store a checklist from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read checklist: %w", err)
			}
			var c checklist.Checklist
			if err := json.Unmarshal(data, &c); err != nil {
				return fmt.Errorf("parse checklist: %w", err)
			}

			store, cleanup, err := buildStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			inspectors, err := checklist.LoadInspectors(os.Getenv("INSPECTORS_FILE"))
			if err != nil {
				return err
			}
			signer, err := archive.NewSignerFromEnv()
			if err != nil {
				return err
			}

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			pipeline, err := exporter.New(exporter.Config{
				Renderer: report.New(report.Config{Inspectors: inspectors, Logger: logger}),
				Store:    store,
				Signer:   signer,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			res, err := pipeline.Export(ctx, c, emailSent)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the checklist JSON file")
	cmd.Flags().BoolVar(&emailSent, "email-sent", false, "Mark the artifact as already notified")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newListCommand() *cobra.Command {
	var checklistType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored artifacts with fresh download links",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, cleanup, err := buildStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			items, err := store.List(ctx, checklistType)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"artifacts": items})
		},
	}

	cmd.Flags().StringVar(&checklistType, "type", "", "Filter by checklist type (full or reduced)")
	return cmd
}

func newLinkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <hash>",
		Short: "Issue a one-hour download link for a stored artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, cleanup, err := buildStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			link, err := store.Link(ctx, strings.ToLower(strings.TrimSpace(args[0])))
			if err != nil {
				return err
			}
			fmt.Println(link)
			return nil
		},
	}
	return cmd
}

func newSweepCommand() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove artifacts whose retention window has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, cleanup, err := buildStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := store.Sweep(ctx, batch)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().IntVar(&batch, "batch", artifacts.DefaultSweepBatchSize, "Rows to process per batch")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
