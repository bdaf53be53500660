// Package pipeline orchestrates the three-stage ingestion run: convert,
// process, chunk, followed by a combine-and-insert step into the vector
// store. Documents are classified light or heavy by page count and
// scheduled as two sequential batches, each with its own bounded worker
// pools, so a single oversized document cannot starve every other
// document's progress.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kasai-dev/pageforge/internal/cache"
	"github.com/kasai-dev/pageforge/internal/chunk"
	"github.com/kasai-dev/pageforge/internal/config"
	"github.com/kasai-dev/pageforge/internal/convert"
	"github.com/kasai-dev/pageforge/internal/docproc"
	"github.com/kasai-dev/pageforge/internal/domain"
	"github.com/kasai-dev/pageforge/internal/embedding"
	"github.com/kasai-dev/pageforge/internal/fontprobe"
	"github.com/kasai-dev/pageforge/internal/header"
	"github.com/kasai-dev/pageforge/internal/vectorstore"
)

// Timings breaks one document's processing time down by stage, mirroring
// ingest.py's per-file { conversion, process_text, process_tables,
// chunking } timing dict. A stage skipped via the cache plan keeps its
// zero value rather than timing the cache read.
type Timings struct {
	Convert      time.Duration
	ProcessText  time.Duration
	ProcessTable time.Duration
	Chunk        time.Duration
}

// Total sums every stage, the figure ingest.py calls pdf_total_time.
func (t Timings) Total() time.Duration {
	return t.Convert + t.ProcessText + t.ProcessTable + t.Chunk
}

// DocStats summarizes one document's outcome, used for the batch report.
type DocStats struct {
	Path      string
	PageCount int
	Chunks    int
	Tables    int
	Timings   Timings
	Err       error
}

// Report is the outcome of one Pipeline.Run call.
type Report struct {
	Processed []DocStats
	Failed    []DocStats
}

// Pipeline wires every external collaborator together and drives the
// convert/process/chunk/combine/insert sequence.
type Pipeline struct {
	converter convert.Converter
	processor *docproc.Processor
	splitter  *chunk.Splitter
	cache     *cache.Layer
	archive   *cache.Archive
	store     vectorstore.VectorStore
	embedder  embedding.Embedder
	cfg       config.PipelineConfig
	llmModel  string
	llmEP     string
	embedMod  string
	log       *zap.Logger
}

// New constructs a Pipeline. archive may be nil, in which case sidecar
// mirroring is skipped entirely.
func New(
	converter convert.Converter,
	processor *docproc.Processor,
	splitter *chunk.Splitter,
	cacheLayer *cache.Layer,
	archive *cache.Archive,
	store vectorstore.VectorStore,
	embedder embedding.Embedder,
	cfg config.PipelineConfig,
	llmModel, llmEndpoint, embeddingModel string,
	log *zap.Logger,
) *Pipeline {
	return &Pipeline{
		converter: converter,
		processor: processor,
		splitter:  splitter,
		cache:     cacheLayer,
		archive:   archive,
		store:     store,
		embedder:  embedder,
		cfg:       cfg,
		llmModel:  llmModel,
		llmEP:     llmEndpoint,
		embedMod:  embeddingModel,
		log:       log,
	}
}

// mirrorSidecar best-effort uploads a cache sidecar to the archive, if one
// is configured. A failed mirror is logged but never fails the stage it
// shadows, matching Archive's documented contract.
func (p *Pipeline) mirrorSidecar(ctx context.Context, localPath string) {
	if p.archive == nil {
		return
	}
	objectKey := filepath.Base(localPath)
	if err := p.archive.Mirror(ctx, localPath, objectKey); err != nil {
		p.log.Warn("sidecar mirror failed", zap.String("path", localPath), zap.Error(err))
	}
}

// Run ingests every path in paths: classifying each into a light or heavy
// batch, running the light batch to completion before the heavy batch
// starts, then combining every document's sidecars and inserting the
// result into the vector store in one call.
func (p *Pipeline) Run(ctx context.Context, paths []string) (Report, error) {
	light, heavy, err := p.classify(paths)
	if err != nil {
		return Report{}, err
	}

	report := Report{}
	p.runBatch(ctx, light, p.cfg.LightBatchLimit, &report)
	p.runBatch(ctx, heavy, p.cfg.HeavyBatchLimit, &report)

	docs, combineErr := p.combine(report.Processed)

	if len(docs) > 0 {
		if err := p.store.Insert(ctx, docs, p.embedder, p.embedMod, p.cfg.MaxTokensPerChunk); err != nil {
			return report, fmt.Errorf("pipeline: insert: %w", err)
		}
	}

	if combineErr != nil {
		return report, fmt.Errorf("pipeline: combine: %w", combineErr)
	}
	return report, nil
}

// classify reads each document's page count (via a cheap open, not a full
// convert) and splits paths into light and heavy batches. A document that
// fails even this cheap probe is logged as a warning and left out of both
// batches; it does not appear in the Report.
func (p *Pipeline) classify(paths []string) (light, heavy []string, err error) {
	for _, path := range paths {
		count, probeErr := pageCount(path)
		if probeErr != nil {
			p.log.Warn("skipping unreadable document", zap.String("path", path), zap.Error(probeErr))
			continue
		}
		if count >= p.cfg.HeavyPageThreshold {
			heavy = append(heavy, path)
		} else {
			light = append(light, path)
		}
	}
	return light, heavy, nil
}

func pageCount(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}

// runBatch fans the batch's documents out across a pool sized
// min(limit, len(batch)), appending each document's outcome to report.
func (p *Pipeline) runBatch(ctx context.Context, batch []string, limit int, report *Report) {
	if len(batch) == 0 {
		return
	}
	size := limit
	if len(batch) < size {
		size = len(batch)
	}

	pl := pool.New().WithMaxGoroutines(size)
	results := make([]DocStats, len(batch))

	for i, path := range batch {
		i, path := i, path
		pl.Go(func() {
			results[i] = p.processDocument(ctx, path)
		})
	}
	pl.Wait()

	for _, r := range results {
		if r.Err != nil {
			report.Failed = append(report.Failed, r)
		} else {
			report.Processed = append(report.Processed, r)
		}
	}
}

// processDocument runs one document through convert, process, and chunk,
// consulting and updating the cache at each stage. Any stage failure drops
// the whole document, returning a DocStats with a non-nil Err.
func (p *Pipeline) processDocument(ctx context.Context, path string) DocStats {
	stem := cache.Stem(path)
	stats := DocStats{Path: path}

	checksum, err := cache.Checksum(path)
	if err != nil {
		stats.Err = fmt.Errorf("checksum: %w", err)
		return stats
	}
	plan := p.cache.Resolve(stem, checksum)

	var tree domain.DocumentTree
	if plan.SkipConvert {
		tree, err = p.cache.ReadConverted(stem)
		if err != nil {
			stats.Err = fmt.Errorf("read cached conversion: %w", err)
			return stats
		}
	} else {
		convertStart := time.Now()
		tree, err = p.converter.Convert(path)
		stats.Timings.Convert = time.Since(convertStart)
		if err != nil {
			stats.Err = fmt.Errorf("convert: %w", err)
			return stats
		}
		if err := p.cache.WriteChecksum(stem, checksum); err != nil {
			stats.Err = fmt.Errorf("write checksum: %w", err)
			return stats
		}
		if err := p.cache.WriteConverted(stem, tree); err != nil {
			stats.Err = fmt.Errorf("write conversion cache: %w", err)
			return stats
		}
		p.mirrorSidecar(ctx, p.cache.ConvertedPath(stem))
	}
	stats.PageCount = tree.PageCount

	var elements []domain.StructuredElement
	if plan.SkipText && plan.SkipTable {
		elements, err = p.cache.ReadText(stem)
		if err != nil {
			stats.Err = fmt.Errorf("read cached text: %w", err)
			return stats
		}
		tables, _ := p.cache.ReadTables(stem)
		stats.Tables = len(tables)
	} else {
		var probeFn = fontProbeFor(path)
		result, processErr := p.processor.Process(tree, tree.Tables, probeFn, filepath.Base(path), p.llmModel, p.llmEP)

		// Process may fail on the table side only, after already building the
		// structured element stream; persist that text sidecar regardless so a
		// re-run can resume from it instead of reconverting and reprocessing
		// from scratch.
		if result != nil {
			stats.Timings.ProcessText = result.TextDuration
			stats.Timings.ProcessTable = result.TableDuration
			elements = result.Elements
			if err := p.cache.WriteText(stem, elements); err != nil {
				stats.Err = fmt.Errorf("write text cache: %w", err)
				return stats
			}
			p.mirrorSidecar(ctx, p.cache.TextPath(stem))
		}
		if processErr != nil {
			stats.Err = fmt.Errorf("process: %w", processErr)
			return stats
		}

		if err := p.cache.WriteTables(stem, result.Tables); err != nil {
			stats.Err = fmt.Errorf("write table cache: %w", err)
			return stats
		}
		p.mirrorSidecar(ctx, p.cache.TablesPath(stem))
		stats.Tables = len(result.Tables)
	}

	if plan.SkipChunks {
		chunks, err := p.cache.ReadChunks(stem)
		if err != nil {
			stats.Err = fmt.Errorf("read cached chunks: %w", err)
			return stats
		}
		stats.Chunks = len(chunks)
		return stats
	}

	chunker := chunk.NewChunker(p.splitter, p.cfg.MaxTokensPerChunk, p.cfg.Overlap)
	chunkStart := time.Now()
	chunks, err := chunker.Chunk(elements)
	stats.Timings.Chunk = time.Since(chunkStart)
	if err != nil {
		stats.Err = fmt.Errorf("chunk: %w", err)
		return stats
	}
	if err := p.cache.WriteChunks(stem, chunks); err != nil {
		stats.Err = fmt.Errorf("write chunk cache: %w", err)
		return stats
	}
	p.mirrorSidecar(ctx, p.cache.ChunksPath(stem))
	stats.Chunks = len(chunks)
	return stats
}

// fontProbeFor opens path with ledongthuc/pdf for font-size fallback
// evidence. A nil probe is returned if the file cannot be opened a second
// time; the header resolver degrades to its last-resort rank in that case.
func fontProbeFor(path string) header.FontSizeProbe {
	_, r, err := pdf.Open(path)
	if err != nil {
		return nil
	}
	return fontprobe.New(r)
}

// combine reads each processed document's chunk and table sidecars and
// flattens them into the CombinedDocument shape the vector store accepts.
func (p *Pipeline) combine(processed []DocStats) ([]domain.CombinedDocument, error) {
	var docs []domain.CombinedDocument
	var errs error

	for _, stat := range processed {
		stem := cache.Stem(stat.Path)
		title := filepath.Base(stat.Path)

		chunks, err := p.cache.ReadChunks(stem)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("combine %s: %w", title, err))
			continue
		}
		for _, c := range chunks {
			prefix := titlePrefix(c)
			docs = append(docs, domain.CombinedDocument{
				PageContent: chunkContent(c, prefix),
				Type:        "text",
				Source:      prefix,
			})
		}

		if stat.Tables > 0 {
			tables, err := p.cache.ReadTables(stem)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("combine %s tables: %w", title, err))
				continue
			}
			for _, t := range tables {
				docs = append(docs, domain.CombinedDocument{
					PageContent: t.Summary,
					Type:        "table",
					Source:      t.HTML,
				})
			}
		}
	}

	return docs, errs
}

// titlePrefix concatenates all four running title slots, deepest last,
// matching create_chunk_documents' meta_info construction: each present
// slot contributes "<Label>: <title> ", in chapter/section/subsection/
// subsubsection order. Empty when no title slot is set.
func titlePrefix(c domain.Chunk) string {
	prefix := ""
	if c.ChapterTitle != nil {
		prefix += "Chapter: " + *c.ChapterTitle + " "
	}
	if c.SectionTitle != nil {
		prefix += "Section: " + *c.SectionTitle + " "
	}
	if c.SubsectionTitle != nil {
		prefix += "Subsection: " + *c.SubsectionTitle + " "
	}
	if c.SubsubsectionTitle != nil {
		prefix += "Subsubsection: " + *c.SubsubsectionTitle + " "
	}
	return prefix
}

func chunkContent(c domain.Chunk, prefix string) string {
	if prefix == "" {
		return c.Content
	}
	return prefix + c.Content
}
