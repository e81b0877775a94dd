// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/docx2md/internal/equations"
	"github.com/pdiddy/docx2md/internal/state"
	"github.com/pdiddy/docx2md/pkg/types"
)

// BatchOptions controls a batch conversion run.
type BatchOptions struct {
	// Recursive descends into subdirectories of the input directory.
	Recursive bool

	// Force converts every file even when the ledger says it is current.
	Force bool
}

// FileResult describes the outcome for one file in a batch run.
type FileResult struct {
	InputFile   string
	OutputFile  string
	Status      types.ConversionStatus
	Stats       types.ConversionStats
	Diagnostics []equations.Diagnostic
	Err         error
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
	Results   []FileResult

	// Stats aggregates over successful conversions.
	Stats types.ConversionStats
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any files failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Batch converts every docx under inputDir, mirroring the directory
// layout under outputDir with .md outputs. Sources recorded as current
// in the conversion ledger are skipped unless opts.Force is set. One
// file failing never aborts the batch.
func Batch(ctx context.Context, conv DocumentConverter, inputDir, outputDir string, cfg types.Config, opts BatchOptions, w io.Writer) (BatchResult, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return BatchResult{}, fmt.Errorf("input directory not found: %s", inputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating output directory: %w", err)
	}

	sources, err := discover(inputDir, opts.Recursive)
	if err != nil {
		return BatchResult{}, err
	}
	if len(sources) == 0 {
		fmt.Fprintf(w, "no .docx files found in %s\n", inputDir)
		return BatchResult{}, nil
	}
	fmt.Fprintf(w, "found %d .docx files to process\n", len(sources))

	var ledger *state.Store
	if cfg.Batch.StateDB != "" {
		if s, err := state.Open(cfg.Batch.StateDB); err != nil {
			fmt.Fprintf(w, "warning: conversion ledger unavailable: %v\n", err)
		} else {
			ledger = s
			defer ledger.Close()
		}
	}

	type task struct {
		src, dst, rel string
		modTime       time.Time
	}

	var result BatchResult
	var tasks []task
	for _, src := range sources {
		rel, err := filepath.Rel(inputDir, src)
		if err != nil {
			rel = filepath.Base(src)
		}
		dst := filepath.Join(outputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".md")

		info, err := os.Stat(src)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", rel, err)
			result.Failed++
			result.Results = append(result.Results, FileResult{
				InputFile: src, OutputFile: dst, Status: types.StatusFailed, Err: err,
			})
			continue
		}

		if ledger != nil && !opts.Force && !ledger.NeedsConversion(ctx, src, info.ModTime()) {
			fmt.Fprintf(w, "skipped: %s (unchanged)\n", rel)
			result.Skipped++
			result.Results = append(result.Results, FileResult{
				InputFile: src, OutputFile: dst, Status: types.StatusSkipped,
			})
			continue
		}

		tasks = append(tasks, task{src: src, dst: dst, rel: rel, modTime: info.ModTime()})
	}

	jobs := cfg.Processing.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	type workResult struct {
		fr      FileResult
		rel     string
		log     string
		modTime time.Time
	}

	ch := make(chan workResult, len(tasks))
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup

	for _, tk := range tasks {
		wg.Add(1)
		go func(tk task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fr := FileResult{InputFile: tk.src, OutputFile: tk.dst}

			if err := ctx.Err(); err != nil {
				fr.Status = types.StatusFailed
				fr.Err = err
				ch <- workResult{fr: fr, rel: tk.rel, modTime: tk.modTime}
				return
			}

			// Each worker logs into its own buffer so lines on w never
			// interleave; the drain loop replays them.
			var buf strings.Builder
			outcome, err := ConvertDocument(conv, tk.src, tk.dst, cfg, &buf)
			if err != nil {
				fr.Status = types.StatusFailed
				fr.Err = err
			} else {
				fr.Status = types.StatusConverted
				fr.Stats = outcome.Stats
				fr.Diagnostics = outcome.Diagnostics
			}
			ch <- workResult{fr: fr, rel: tk.rel, log: buf.String(), modTime: tk.modTime}
		}(tk)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	for wr := range ch {
		fr := wr.fr
		if fr.Err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", wr.rel, fr.Err)
			result.Failed++
		} else {
			fmt.Fprintf(w, "converted: %s\n", wr.rel)
			result.Converted++
			result.Stats.Add(fr.Stats)
		}
		for _, line := range strings.Split(strings.TrimRight(wr.log, "\n"), "\n") {
			if line != "" {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		result.Results = append(result.Results, fr)

		if ledger != nil {
			err := ledger.Record(ctx, state.Entry{
				SourcePath:    fr.InputFile,
				OutputPath:    fr.OutputFile,
				SourceModTime: wr.modTime,
				ConvertedAt:   time.Now(),
				Equations:     fr.Stats.Equations(),
				Images:        fr.Stats.ImagesProcessed,
				Tables:        fr.Stats.TablesProcessed,
				Status:        fr.Status,
			})
			if err != nil {
				fmt.Fprintf(w, "warning: ledger update failed: %v\n", err)
			}
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())

	return result, nil
}

// discover lists docx files directly in dir, or the whole tree below it
// when recursive is set.
func discover(dir string, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".docx") {
				continue
			}
			files = append(files, filepath.Join(dir, e.Name()))
		}
		return files, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".docx") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return files, nil
}
