// Package app wires every concrete adapter into a Pipeline via fx: one
// fx.Module per concern, assembled into a single top-level Module the
// entrypoints invoke.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kasai-dev/pageforge/internal/cache"
	"github.com/kasai-dev/pageforge/internal/chunk"
	"github.com/kasai-dev/pageforge/internal/config"
	"github.com/kasai-dev/pageforge/internal/convert"
	"github.com/kasai-dev/pageforge/internal/docproc"
	"github.com/kasai-dev/pageforge/internal/embedding"
	"github.com/kasai-dev/pageforge/internal/llm"
	"github.com/kasai-dev/pageforge/internal/logger"
	"github.com/kasai-dev/pageforge/internal/pipeline"
	"github.com/kasai-dev/pageforge/internal/tokenizer"
	"github.com/kasai-dev/pageforge/internal/vectorstore"
)

// InfrastructureModule provides configuration and logging.
var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(
		NewConfig,
		NewLogger,
	),
)

// ClientsModule provides every external-service adapter the pipeline
// depends on.
var ClientsModule = fx.Module("clients",
	fx.Provide(
		NewLLMClient,
		NewEmbeddingClient,
		NewTokenizer,
		NewConverter,
		NewVectorStore,
		NewSummaryMemo,
	),
)

// PipelineModule provides the cache layer, processor, chunker, and the
// assembled Pipeline.
var PipelineModule = fx.Module("pipeline",
	fx.Provide(
		NewCacheLayer,
		NewArchive,
		NewProcessor,
		NewSplitter,
		NewPipeline,
	),
)

// Module is the complete application: every concern above, composed.
var Module = fx.Options(
	InfrastructureModule,
	ClientsModule,
	PipelineModule,
)

// NewConfig loads configuration from the working directory.
func NewConfig() (*config.Config, error) {
	return config.LoadConfig(".")
}

// NewLogger initializes and returns the process logger, honoring the
// LOG_LEVEL environment variable the CLI's --debug flag forces to "debug"
// before this runs.
func NewLogger(cfg *config.Config, lc fx.Lifecycle) (*zap.Logger, error) {
	if err := logger.Init(os.Getenv("LOG_LEVEL"), false); err != nil {
		return nil, fmt.Errorf("app: init logger: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Sync()
			return nil
		},
	})
	return logger.Get(), nil
}

// NewLLMClient constructs the LLM adapter.
func NewLLMClient(cfg *config.Config) llm.LLMClient {
	return llm.NewClient(cfg.Services.LLM)
}

// NewEmbeddingClient constructs the embedding adapter.
func NewEmbeddingClient(cfg *config.Config) embedding.Embedder {
	return embedding.NewClient(cfg.Services.Embedding)
}

// NewTokenizer constructs the token counter.
func NewTokenizer() tokenizer.Tokenizer {
	return tokenizer.NewTiktokenCounter()
}

// NewConverter constructs the PDF converter.
func NewConverter() convert.Converter {
	return convert.NewFitzConverter()
}

// NewVectorStore connects to Postgres and ensures the backing table exists.
func NewVectorStore(ctx context.Context, cfg *config.Config, lc fx.Lifecycle) (vectorstore.VectorStore, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	store, err := vectorstore.NewPostgresStore(ctx, dsn, cfg.Database.IndexName, cfg.Database.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("app: connect vector store: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			store.Close()
			return nil
		},
	})
	return store, nil
}

// NewSummaryMemo connects to Redis for LLM summary memoization. Returns a
// nil SummaryMemo (not an error) if Redis is unreachable, so a missing
// cache never blocks ingestion.
func NewSummaryMemo(cfg *config.Config, log *zap.Logger, lc fx.Lifecycle) docproc.SummaryMemo {
	memo, err := cache.NewLLMMemo(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("llm summary memoization disabled", zap.Error(err))
		return nil
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			memo.Close()
			return nil
		},
	})
	return memo
}

// NewCacheLayer constructs the sidecar cache, rooted under the index
// name so distinct deployments never share a cache root by accident.
func NewCacheLayer(cfg *config.Config) (*cache.Layer, error) {
	root := cfg.Pipeline.CacheRoot
	if root == "" {
		root = ".cache/" + cfg.Database.IndexName
	}
	return cache.New(root)
}

// NewArchive connects to MinIO for sidecar mirroring when cfg.MinIO.Enabled
// is set. Returns a nil *cache.Archive (not an error) when disabled or
// unreachable, so a missing object store never blocks ingestion.
func NewArchive(ctx context.Context, cfg *config.Config, log *zap.Logger) *cache.Archive {
	if !cfg.MinIO.Enabled {
		return nil
	}
	archive, err := cache.NewArchive(ctx, cache.ArchiveConfig{
		Endpoint:        cfg.MinIO.Endpoint,
		AccessKeyID:     cfg.MinIO.AccessKeyID,
		SecretAccessKey: cfg.MinIO.SecretAccessKey,
		BucketName:      cfg.MinIO.BucketName,
		UseSSL:          cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Warn("sidecar archive disabled", zap.Error(err))
		return nil
	}
	return archive
}

// NewProcessor constructs the document processor.
func NewProcessor(client llm.LLMClient, memo docproc.SummaryMemo) *docproc.Processor {
	return docproc.NewProcessor(client, memo)
}

// NewSplitter constructs the token splitter against the embedding
// endpoint's tokenizer.
func NewSplitter(tok tokenizer.Tokenizer, cfg *config.Config) *chunk.Splitter {
	return chunk.NewSplitter(tok, cfg.Services.Embedding.BaseURL)
}

// NewPipeline assembles every collaborator into a Pipeline.
func NewPipeline(
	converter convert.Converter,
	processor *docproc.Processor,
	splitter *chunk.Splitter,
	cacheLayer *cache.Layer,
	archive *cache.Archive,
	store vectorstore.VectorStore,
	embedder embedding.Embedder,
	cfg *config.Config,
	log *zap.Logger,
) *pipeline.Pipeline {
	return pipeline.New(
		converter, processor, splitter, cacheLayer, archive, store, embedder,
		cfg.Pipeline,
		cfg.Services.LLM.Model, cfg.Services.LLM.BaseURL, cfg.Services.Embedding.Model,
		log,
	)
}

