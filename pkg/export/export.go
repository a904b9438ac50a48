// Package export renders stored messages into files for downstream tools: one CSV table
// with timestamp,source,text columns and optionally one RSS 2.0 feed per source.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/chanscope/pkg/domain"
)

// Store provides stored messages
type Store interface {
	Sources(ctx context.Context) ([]string, error)
	ListMessages(ctx context.Context, source string) ([]domain.Message, error)
}

// Params defines exporter settings
type Params struct {
	Dir         string
	Formats     []string // csv, rss
	BaseURL     string
	Concurrency int
}

// Exporter writes per-source files
type Exporter struct {
	Params
	store     Store
	generator *Generator
}

// Result is the outcome for one source
type Result struct {
	Source   string
	Messages int
	Files    []string
}

// New makes an exporter
func New(store Store, p Params) *Exporter {
	if p.Concurrency <= 0 {
		p.Concurrency = 4
	}
	if len(p.Formats) == 0 {
		p.Formats = []string{"csv"}
	}
	return &Exporter{Params: p, store: store, generator: NewGenerator(p.BaseURL)}
}

// Export writes files for the given sources, or for every stored source if none given.
// Results are in the order of sources. The first failure cancels remaining sources.
func (e *Exporter) Export(ctx context.Context, sources []string) ([]Result, error) {
	if len(sources) == 0 {
		all, err := e.store.Sources(ctx)
		if err != nil {
			return nil, fmt.Errorf("list sources: %w", err)
		}
		sources = all
	}
	if err := os.MkdirAll(e.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("make export dir: %w", err)
	}

	results := make([]Result, len(sources)) // each goroutine writes only its own index
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			res, err := e.exportSource(ctx, src)
			if err != nil {
				return fmt.Errorf("export %s: %w", src, err)
			}
			results[i] = res
			lgr.Printf("[INFO] exported %d messages of %s to %s", res.Messages, src, strings.Join(res.Files, ", "))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Exporter) exportSource(ctx context.Context, source string) (Result, error) {
	msgs, err := e.store.ListMessages(ctx, source)
	if err != nil {
		return Result{}, err
	}
	res := Result{Source: source, Messages: len(msgs)}

	base := filepath.Join(e.Dir, FileName(source))
	for _, format := range e.Formats {
		var file string
		switch format {
		case "csv":
			file = base + ".csv"
			err = writeAtomic(file, func(f *os.File) error { return WriteCSV(f, msgs) })
		case "rss":
			file = base + ".xml"
			err = writeAtomic(file, func(f *os.File) error {
				feed, genErr := e.generator.GenerateRSS(source, msgs)
				if genErr != nil {
					return genErr
				}
				_, wrErr := f.WriteString(feed)
				return wrErr
			})
		default:
			return res, fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return res, err
		}
		res.Files = append(res.Files, file)
	}
	return res, nil
}

// WriteCSV writes the timestamp,source,text table, one row per message in store order
func WriteCSV(w io.Writer, msgs []domain.Message) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "source", "text"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range msgs {
		if err := cw.Write([]string{m.PostedAt.Format(domain.TimeLayout), m.Source, m.Text}); err != nil {
			return fmt.Errorf("write message %d: %w", m.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// FileName maps a source name to a safe file name without extension
func FileName(source string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(source) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	res := strings.Trim(b.String(), ".")
	if res == "" {
		return "source"
	}
	return res
}

// writeAtomic writes to a temp file in the same directory and renames it over path
func writeAtomic(path string, fn func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after rename

	if err := fn(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
