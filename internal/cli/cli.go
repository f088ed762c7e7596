// Package cli implements the keywords command: offline extraction of ranked
// keywords from local documents, several at a time.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/ranker"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/report"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/logger"
)

// reportSuffix names the per-document files written by --out-dir.
const reportSuffix = ".keywords.txt"

type options struct {
	configPath string
	files      []string
	filter     string
	top        int
	out        string
	outDir     string
	workers    int
	stopwords  string
	verbose    bool
}

type fileResult struct {
	path     string
	keywords []keywords.Keyword
	err      error
}

// NewRootCommand builds the keywords command writing reports to stdout and
// logs to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "keywords [flags] [file...]",
		Short: "Extract ranked keywords from local documents",
		Long: `keywords reads PDF, DOCX, PPTX, HTML and plain-text documents, extracts
stemmed one- and two-word keywords weighted by term frequency and prints them
ranked by score, one "keyword (Score: 0.00)" line each.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.files = append(opts.files, args...)
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger.SetupWriter(stderr, level, "text")
			return run(cmd.Context(), opts, cmd.Flags().Changed("top"), stdout)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file; built-in defaults and KE_* variables when empty")
	f.StringSliceVarP(&opts.files, "file", "f", nil, "document to process (repeatable)")
	f.StringVar(&opts.filter, "filter", "", "keep only keywords containing this substring")
	f.IntVarP(&opts.top, "top", "n", 0, "keywords per document, 0 keeps all (default extraction.defaultTopK)")
	f.StringVarP(&opts.out, "out", "o", "", "write the report to this file; single document only")
	f.StringVar(&opts.outDir, "out-dir", "", "write one <name>"+reportSuffix+" report per document into this directory")
	f.IntVarP(&opts.workers, "workers", "w", runtime.NumCPU(), "documents processed concurrently")
	f.StringVar(&opts.stopwords, "stopwords", "", "stopword file replacing the built-in list")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
	return cmd
}

func run(ctx context.Context, opts *options, topSet bool, stdout io.Writer) error {
	if len(opts.files) == 0 {
		return errors.New("no input documents: pass paths as arguments or with --file")
	}
	if opts.out != "" && opts.outDir != "" {
		return errors.New("--out and --out-dir are mutually exclusive")
	}
	if opts.out != "" && len(opts.files) > 1 {
		return fmt.Errorf("--out takes a single document, got %d; use --out-dir", len(opts.files))
	}

	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.stopwords != "" {
		cfg.Extraction.StopwordsPath = opts.stopwords
	}
	top := cfg.Extraction.DefaultTopK
	if topSet {
		top = opts.top
	}
	if top < 0 {
		return fmt.Errorf("--top must not be negative, got %d", top)
	}

	pipelineCfg, err := pipeline.NewConfig(cfg.Extraction)
	if err != nil {
		return err
	}
	extractor := pipeline.New(pipelineCfg)

	results, err := extractAll(ctx, extractor, opts, top, cfg.Extraction.MaxUploadBytes)
	if err != nil {
		return err
	}
	return writeReports(results, opts, stdout)
}

// extractAll processes every document on a bounded pool. Results keep the
// order of opts.files.
func extractAll(ctx context.Context, extractor *pipeline.Extractor, opts *options, top int, maxBytes int64) ([]fileResult, error) {
	workers := opts.workers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]fileResult, len(opts.files))
	var wg sync.WaitGroup
	for i, path := range opts.files {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			kws, err := extractFile(ctx, extractor, path, maxBytes)
			if err == nil {
				kws = ranker.Rank(kws, opts.filter, top)
			}
			results[i] = fileResult{path: path, keywords: kws, err: err}
		})
		if err != nil {
			wg.Done()
			results[i] = fileResult{path: path, err: fmt.Errorf("scheduling: %w", err)}
		}
	}
	wg.Wait()
	return results, nil
}

func extractFile(ctx context.Context, extractor *pipeline.Extractor, path string, maxBytes int64) ([]keywords.Keyword, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	if err := document.Validate(name, info.Size(), maxBytes); err != nil {
		return nil, err
	}
	text, err := document.Extract(name, f, info.Size(), maxBytes)
	if err != nil {
		return nil, err
	}
	result := extractor.Extract(ctx, text)
	slog.Debug("document processed",
		"path", path,
		"terms", result.TermCount,
		"keywords", len(result.Keywords),
	)
	return result.Keywords, nil
}

func writeReports(results []fileResult, opts *options, stdout io.Writer) error {
	var failed, printed int
	for _, res := range results {
		if res.err != nil {
			failed++
			slog.Error("document failed", "path", res.path, "error", res.err)
			continue
		}
		switch {
		case opts.out != "":
			if err := writeFile(opts.out, res.keywords); err != nil {
				return err
			}
		case opts.outDir != "":
			name := strings.TrimSuffix(filepath.Base(res.path), filepath.Ext(res.path)) + reportSuffix
			if err := writeFile(filepath.Join(opts.outDir, name), res.keywords); err != nil {
				return err
			}
		case len(results) == 1:
			fmt.Fprintln(stdout, report.Format(res.keywords))
		default:
			if printed > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintf(stdout, "==> %s <==\n%s\n", res.path, report.Format(res.keywords))
			printed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

func writeFile(path string, kws []keywords.Keyword) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("closing report: %w", closeErr)
		}
	}()
	return report.Write(f, kws)
}
