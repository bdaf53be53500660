// Command ingest is the pipeline's CLI: it ingests a directory of PDFs
// into the vector store, or resets the store with clean-db.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kasai-dev/pageforge/internal/app"
	"github.com/kasai-dev/pageforge/internal/cache"
	"github.com/kasai-dev/pageforge/internal/discover"
	"github.com/kasai-dev/pageforge/internal/pipeline"
	"github.com/kasai-dev/pageforge/internal/render"
	"github.com/kasai-dev/pageforge/internal/vectorstore"
)

func main() {
	root := &cobra.Command{
		Use:   "pageforge",
		Short: "Ingest PDFs into the vector store",
	}

	var path string
	var debug bool

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Convert, structure, and chunk every PDF under --path, then index the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(path, debug)
		},
	}
	ingestCmd.Flags().StringVar(&path, "path", "", "directory to recursively scan for PDFs")
	ingestCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	_ = ingestCmd.MarkFlagRequired("path")

	cleanCmd := &cobra.Command{
		Use:   "clean-db",
		Short: "Drop and recreate the vector store's backing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanDB(debug)
		},
	}
	cleanCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(ingestCmd, cleanCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runIngest(path string, debug bool) error {
	applyDebugFlag(debug)

	var pl *pipeline.Pipeline
	var cacheLayer *cache.Layer
	var log *zap.Logger

	application := fx.New(
		app.Module,
		fx.Populate(&pl, &cacheLayer, &log),
		fx.NopLogger,
	)

	if err := application.Start(context.Background()); err != nil {
		return fmt.Errorf("ingest: start application: %w", err)
	}
	defer application.Stop(context.Background())

	paths, err := discover.Find(path, log)
	if err != nil {
		return fmt.Errorf("ingest: discover PDFs under %s: %w", path, err)
	}
	if len(paths) == 0 {
		fmt.Println("no PDFs found")
		return nil
	}

	report, err := pl.Run(context.Background(), paths)
	fmt.Print(report.Render())
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if debug {
		previewChunks(cacheLayer, report, log)
	}
	return nil
}

// previewChunks renders the first chunk of every processed document to
// HTML, so --debug gives an operator something to eyeball beyond the
// report table.
func previewChunks(cacheLayer *cache.Layer, report pipeline.Report, log *zap.Logger) {
	for _, doc := range report.Processed {
		chunks, err := cacheLayer.ReadChunks(cache.Stem(doc.Path))
		if err != nil || len(chunks) == 0 {
			continue
		}
		html, err := render.Preview(chunks[0])
		if err != nil {
			log.Warn("chunk preview failed", zap.String("path", doc.Path), zap.Error(err))
			continue
		}
		fmt.Printf("--- %s (chunk 1/%d) ---\n%s\n", doc.Path, len(chunks), html)
	}
}

func runCleanDB(debug bool) error {
	applyDebugFlag(debug)

	var store vectorstore.VectorStore

	application := fx.New(
		app.InfrastructureModule,
		app.ClientsModule,
		fx.Populate(&store),
		fx.NopLogger,
	)

	if err := application.Start(context.Background()); err != nil {
		return fmt.Errorf("clean-db: start application: %w", err)
	}
	defer application.Stop(context.Background())

	if err := store.Reset(context.Background()); err != nil {
		return fmt.Errorf("clean-db: %w", err)
	}
	fmt.Println("vector store reset")
	return nil
}

// applyDebugFlag forces LOG_LEVEL to "debug" for this process when --debug
// is set, regardless of whatever LOG_LEVEL already carries; an unset flag
// leaves LOG_LEVEL exactly as the operator's environment set it.
func applyDebugFlag(debug bool) {
	if debug {
		os.Setenv("LOG_LEVEL", "debug")
	}
}
