package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/guideparse/internal/chunker"
	"github.com/dgallion1/guideparse/internal/config"
	"github.com/dgallion1/guideparse/internal/doctree"
	"github.com/dgallion1/guideparse/internal/grobid"
	"github.com/dgallion1/guideparse/internal/parser"
	"github.com/dgallion1/guideparse/internal/sections"
)

// WorkerOptions configures how a Worker turns uploads into fragments.
type WorkerOptions struct {
	SegmentSentences  bool
	ConsolidateHeader bool
	LocalFallback     bool // Parse PDFs locally when GROBID fails.
	MaxRetries        int  // Extra GROBID attempts after a busy reply; negative means DefaultMaxRetries.
	Parser            parser.Options
	Chunk             chunker.Config
}

// OptionsFromConfig maps service configuration onto worker options.
func OptionsFromConfig(cfg config.Config) WorkerOptions {
	return WorkerOptions{
		SegmentSentences:  cfg.SegmentSentences,
		ConsolidateHeader: cfg.ConsolidateHeader,
		LocalFallback:     cfg.LocalFallback,
		MaxRetries:        cfg.MaxRetries,
		Parser: parser.Options{
			PdftotextFallback: cfg.PDFFallbackPdftotext,
			PandocFallback:    cfg.PandocFallback,
		},
		Chunk: chunker.Config{
			ChunkSize:    cfg.DefaultChunkSize,
			ChunkOverlap: cfg.DefaultChunkOverlap,
			MinChunk:     chunker.DefaultConfig().MinChunk,
		},
	}
}

// Worker processes a single document job.
type Worker struct {
	grobid *grobid.Client
	jobs   *JobStore
	log    *slog.Logger
	opts   WorkerOptions
}

func NewWorker(gc *grobid.Client, jobs *JobStore, log *slog.Logger, opts WorkerOptions) *Worker {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &Worker{grobid: gc, jobs: jobs, log: log, opts: opts}
}

// Process runs the full pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	if !job.Force && w.jobs != nil {
		if prev := w.jobs.FindCompleted(job.ContentHash, job.ID); prev != nil {
			log.Info("duplicate document, reusing result", "existing_job_id", prev.ID)
			job.mu.Lock()
			job.DuplicateOf = prev.ID
			job.mu.Unlock()
			job.SetResult(prev.Result())
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 1: extract fragments
	job.SetStatus(StatusParsing, "parsing")
	ex, err := w.extract(ctx, job, log)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	frags, title := ex.Fragments, ex.Title
	job.SetFragments(len(frags))
	if job.Title != "" {
		title = job.Title
	}
	log.Info("extracted fragments", "fragments", len(frags), "source", ex.Source)

	// Phase 2: reconstruct
	job.SetStatus(StatusReconstructing, "reconstructing")
	secs, stats := sections.ReconstructWithStats(frags)
	log.Info("reconstructed sections", "sections", len(secs),
		"duplicates", stats.Duplicates, "noise", stats.Noise, "merged", stats.Merged)
	if len(secs) == 0 {
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "reconstructing")
		return
	}

	// Phase 3: chunk
	job.SetStatus(StatusChunking, "chunking")
	chunks := chunker.ChunkSections(secs, w.opts.Chunk)

	job.SetResult(&Result{
		Title:    title,
		Source:   ex.Source,
		Sections: secs,
		Stats:    stats,
		Chunks:   chunks,
	})
	job.SetStatus(StatusCompleted, "done")
	log.Info("job complete", "sections", len(secs), "chunks", len(chunks))
}

// Extraction is the fragment list produced for one document.
type Extraction struct {
	Fragments []doctree.Fragment
	Title     string
	Source    string
}

// Extract runs only the first pipeline phase for a job and leaves its
// status untouched. GROBID failures that were recovered from locally are
// recorded on the job.
func (w *Worker) Extract(ctx context.Context, job *Job) (Extraction, error) {
	return w.extract(ctx, job, w.log.With("job_id", job.ID, "filename", job.Filename))
}

// extract produces fragments for the job's upload. PDFs go to GROBID when a
// client is configured; JSON uploads are decoded as fragment lists.
func (w *Worker) extract(ctx context.Context, job *Job, log *slog.Logger) (Extraction, error) {
	data := job.FileData()
	ext := strings.ToLower(filepath.Ext(job.Filename))
	base := strings.TrimSuffix(filepath.Base(job.Filename), filepath.Ext(job.Filename))

	switch {
	case ext == ".json":
		frags, err := sections.DecodeRaw(bytes.NewReader(data))
		if err != nil {
			return Extraction{}, err
		}
		return Extraction{Fragments: frags, Title: base, Source: SourceJSON}, nil

	case ext == ".pdf" && w.grobid != nil:
		doc, err := w.viaGrobid(ctx, job.Filename, data, log)
		if err == nil {
			title := doc.Title
			if title == "" {
				title = base
			}
			return Extraction{Fragments: doc.Fragments, Title: title, Source: SourceGrobid}, nil
		}
		if !w.opts.LocalFallback || ctx.Err() != nil {
			return Extraction{}, err
		}
		log.Warn("grobid failed, using local parser", "error", err)
		job.AddError(err.Error())
	}

	p, err := parser.ForFile(job.Filename, w.opts.Parser)
	if err != nil {
		return Extraction{}, err
	}
	tree, err := p.Parse(bytes.NewReader(data), filepath.Base(job.Filename))
	if err != nil {
		return Extraction{}, fmt.Errorf("parse: %w", err)
	}
	return Extraction{Fragments: parser.Fragments(tree), Title: tree.Title, Source: SourceLocal}, nil
}

func (w *Worker) viaGrobid(ctx context.Context, filename string, data []byte, log *slog.Logger) (*grobid.Document, error) {
	opts := grobid.Options{
		SegmentSentences:  w.opts.SegmentSentences,
		ConsolidateHeader: w.opts.ConsolidateHeader,
	}
	tei, err := withRetry(ctx, w.opts.MaxRetries+1, log, func() ([]byte, error) {
		return w.grobid.ProcessFulltext(ctx, filepath.Base(filename), bytes.NewReader(data), opts)
	})
	if err != nil {
		return nil, fmt.Errorf("grobid: %w", err)
	}
	doc, err := grobid.ParseTEI(bytes.NewReader(tei), w.opts.SegmentSentences)
	if err != nil {
		return nil, fmt.Errorf("grobid: %w", err)
	}
	return doc, nil
}
