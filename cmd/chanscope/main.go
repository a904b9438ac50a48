package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/chanscope/pkg/config"
	"github.com/umputun/chanscope/pkg/crawler"
	"github.com/umputun/chanscope/pkg/domain"
	"github.com/umputun/chanscope/pkg/export"
	"github.com/umputun/chanscope/pkg/repository"
	"github.com/umputun/chanscope/pkg/telegram"
)

// Opts with all CLI options
type Opts struct {
	Config     string `short:"c" long:"config" env:"CONFIG" default:"chanscope.yml" description:"configuration file"`
	Full       bool   `long:"full" env:"FULL" description:"ignore stored cursors and re-fetch the whole window"`
	Export     string `long:"export" env:"EXPORT_DIR" description:"export stored messages to this directory after crawling"`
	ExportOnly bool   `long:"export-only" description:"export stored messages without crawling"`
	ExportAll  bool   `long:"export-all" description:"export every stored source, not only configured ones"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

// console is used for the login code prompt and the final summary
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug)

	log.Printf("[INFO] starting chanscope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] done")
}

// run loads config and store, crawls sources unless export-only, then exports if asked.
// Returned errors are fatal. These are config or store failures, no authorized session
// and a failed export-only run.
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLog(opts.Debug, cfg.Secrets()...)

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Printf("[WARN] failed to close database: %v", err)
		}
	}()

	if !opts.ExportOnly {
		report, err := crawl(ctx, cfg, opts.Full, repos, opts.Debug)
		if len(report.Sources) > 0 {
			fmt.Fprint(stdout, formatSummary(report, cfg.Sources, storedCounts(ctx, repos.Message, report)))
		}
		if err != nil {
			if crawler.IsFatal(err) {
				return err
			}
			log.Printf("[WARN] crawl interrupted: %v", err)
			return nil
		}
	}

	if !opts.ExportOnly && !opts.ExportAll && opts.Export == "" {
		return nil
	}

	if err := exportSources(ctx, cfg, opts.Export, opts.ExportAll, repos.Message); err != nil {
		if opts.ExportOnly {
			return err
		}
		log.Printf("[ERROR] %v", err)
	}
	return nil
}

func crawl(ctx context.Context, cfg *config.Config, full bool, repos *repository.Repositories, dbg bool) (crawler.Report, error) {
	zlog, err := telegram.NewLogger(dbg)
	if err != nil {
		return crawler.Report{}, fmt.Errorf("failed to make client logger: %w", err)
	}
	defer zlog.Sync() //nolint:errcheck // stderr sync fails on terminals

	dialer := telegram.NewDialer(telegram.Config{
		AppID:        cfg.Telegram.AppID,
		AppHash:      cfg.Telegram.AppHash,
		Phone:        cfg.Telegram.Phone,
		Password:     cfg.Telegram.Password,
		SessionFile:  cfg.Telegram.SessionFile,
		TestDC:       cfg.Telegram.TestDC,
		DialTimeout:  cfg.Telegram.DialTimeout,
		MaxFloodWait: cfg.Telegram.MaxFloodWait,
		DialogPages:  cfg.Telegram.DialogPages,
		Proxy:        cfg.Telegram.Proxy,
		CodePrompt:   codePrompt(stdin, stdout),
	}, zlog)

	c := crawler.New(crawler.Params{
		Negotiator: crawler.NewNegotiator(dialer, crawler.NegotiatorConfig{
			Transports: cfg.Telegram.Transports,
			MaxRetries: cfg.Crawl.MaxRetries,
			RetryDelay: cfg.Crawl.RetryDelay,
		}),
		Resolver: crawler.NewResolver(cfg.Invites, cfg.Crawl.SearchLimit),
		Fetcher: crawler.NewFetcher(crawler.FetcherConfig{
			BatchSize:  cfg.Crawl.BatchSize,
			Retries:    cfg.Crawl.FetchRetries,
			RetryDelay: cfg.Crawl.FetchRetryDelay,
			MaxDelay:   cfg.Crawl.FetchMaxDelay,
		}),
		Messages: repos.Message,
		Cursors:  repos.Cursor,
		Sources:  sources(cfg),
		Window:   domain.Window{Start: cfg.Window.Start.Time, End: time.Now()},
		Full:     full,
	})

	report, err := c.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("crawl failed: %w", err)
	}
	return report, nil
}

// exportSources writes configured sources, or every source found in the store if all is set
func exportSources(ctx context.Context, cfg *config.Config, dir string, all bool, store export.Store) error {
	if dir == "" {
		dir = cfg.Export.Dir
	}
	var names []string // empty names make the exporter list the store
	if !all {
		for _, s := range cfg.Sources {
			names = append(names, s.Name)
		}
	}

	exporter := export.New(store, export.Params{
		Dir:         dir,
		Formats:     cfg.Export.Formats,
		BaseURL:     cfg.Export.BaseURL,
		Concurrency: cfg.Export.Concurrency,
	})
	results, err := exporter.Export(ctx, names)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	total := 0
	for _, r := range results {
		total += r.Messages
	}
	log.Printf("[INFO] exported %d messages of %d sources to %s", total, len(results), dir)
	return nil
}

func sources(cfg *config.Config) []domain.Source {
	res := make([]domain.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		res = append(res, domain.Source{Name: s.Name, Invite: cfg.Invites[s.Name]})
	}
	return res
}

// messageCounter reports how many messages are stored for a source
type messageCounter interface {
	CountMessages(ctx context.Context, source string) (int, error)
}

// storedCounts returns stored totals of successfully processed sources, failed lookups are skipped
func storedCounts(ctx context.Context, counter messageCounter, report crawler.Report) map[string]int {
	res := make(map[string]int, len(report.Sources))
	if ctx.Err() != nil {
		return res
	}
	for _, sr := range report.Sources {
		if sr.Err != nil {
			continue
		}
		n, err := counter.CountMessages(ctx, sr.Source)
		if err != nil {
			log.Printf("[WARN] failed to count stored messages of %s: %v", sr.Source, err)
			continue
		}
		res[sr.Source] = n
	}
	return res
}

// formatSummary lists every configured source, processed or not
func formatSummary(report crawler.Report, configured []config.SourceConfig, stored map[string]int) string {
	byName := make(map[string]crawler.SourceReport, len(report.Sources))
	for _, sr := range report.Sources {
		byName[sr.Source] = sr
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nprocessed %d of %d sources via %s in %v, %d failed\n",
		len(report.Sources), len(configured), report.Transport,
		report.Finished.Sub(report.Started).Truncate(time.Second), report.Failed())
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	for _, s := range configured {
		sr, ok := byName[s.Name]
		switch {
		case !ok:
			fmt.Fprintf(w, "  %s\tnot processed\n", s.Name)
		case sr.Err != nil:
			fmt.Fprintf(w, "  %s\t%s\n", s.Name, color.RedString("failed: %v", sr.Err))
		default:
			line := fmt.Sprintf("  %s\tvia %s\tfetched %d\tsaved %d", s.Name, sr.Strategy, sr.Fetched, sr.Saved)
			if n, ok := stored[s.Name]; ok {
				line += fmt.Sprintf("\tstored %d", n)
			}
			fmt.Fprintln(w, line)
		}
	}
	_ = w.Flush()
	return sb.String()
}

// codePrompt reads the login code from the console, one line per call. A single goroutine
// owns the reader, a canceled call leaves the pending line to the next one.
func codePrompt(in io.Reader, out io.Writer) func(ctx context.Context) (string, error) {
	type line struct {
		text string
		err  error
	}
	lines := make(chan line, 1)
	var once sync.Once
	readLines := func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			text, err := reader.ReadString('\n')
			lines <- line{text: strings.TrimSpace(text), err: err}
			if err != nil {
				return
			}
		}
	}

	return func(ctx context.Context) (string, error) {
		once.Do(func() { go readLines() })
		fmt.Fprint(out, "enter login code: ")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return "", fmt.Errorf("read login code: %w", io.EOF)
			}
			if l.text == "" {
				if l.err != nil {
					return "", fmt.Errorf("read login code: %w", l.err)
				}
				return "", errors.New("empty login code")
			}
			return l.text, nil
		}
	}
}

func setupLog(dbg bool, secs ...string) {
	var logOpts []lgr.Option
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
