package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"place_extractor/internal/adapters/browser"
	"place_extractor/internal/adapters/export"
	"place_extractor/internal/adapters/htmlpage"
	"place_extractor/internal/adapters/observability"
	"place_extractor/internal/app"
	"place_extractor/internal/domain"
	"place_extractor/internal/extract"
	"place_extractor/internal/shared"
	mysqlrepo "place_extractor/internal/storage/mysql"
)

func main() {
	var (
		url     = flag.String("url", "", "place URL to extract; prompts interactively when empty")
		urls    = flag.String("urls", "", "file with one place URL per line, processed in order")
		html    = flag.String("html", "", "extract from a saved HTML snapshot instead of a live browser")
		save    = flag.Bool("save", false, "write each envelope to OUTPUT_DIR")
		refresh = flag.Bool("refresh", false, "ignore cached results")
		asJSON  = flag.Bool("json", false, "print envelopes as JSON instead of a summary")
	)
	flag.Parse()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sel, err := extract.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("selectors")
	}
	pipelineLog := log.Logger.With().Str("component", "extract").Logger()
	ex := extract.New(extract.Options{
		Selectors: sel,
		Timings:   cfg.Timings,
		Logger:    &pipelineLog,
		Recorder:  observability.Recorder{},
	})
	writer := export.NewFileWriter(cfg.OutputDir)
	out := &printer{w: os.Stdout, json: *asJSON}

	if *html != "" {
		env := offline(ctx, ex, *html, *url)
		out.print(env)
		if *save {
			saveEnvelope(writer, env)
		}
		return
	}

	var repo domain.ExtractionRepository
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		repo = mysqlrepo.New(db)
	}

	launcher := browser.NewLauncher(browser.Options{
		Headless:     cfg.Headless,
		UserAgent:    cfg.UserAgent,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		Logger:       log.Logger.With().Str("component", "browser").Logger(),
	})
	svc := app.NewExtractionService(launcher, ex, repo, nil, cfg.CacheTTL).
		WithObserver(observability.ObserveExtraction)

	extractOne := func(u string) (domain.Envelope, error) {
		runCtx, cancel := context.WithTimeout(ctx, cfg.PageTimeout)
		defer cancel()
		return svc.Extract(runCtx, u, *refresh)
	}

	switch {
	case *urls != "":
		batch(ctx, *urls, extractOne, out, writer, *save)
	case *url != "":
		env, err := extractOne(*url)
		if err != nil {
			log.Error().Err(err).Str("url", *url).Msg("extraction")
			if env.ID == "" {
				os.Exit(1)
			}
		}
		out.print(env)
		if *save {
			saveEnvelope(writer, env)
		}
	default:
		interactive(ctx, os.Stdin, extractOne, out, writer)
	}
}

// offline runs the pipeline over a saved snapshot; sourceURL only labels the envelope.
func offline(ctx context.Context, ex *extract.Extractor, path, sourceURL string) domain.Envelope {
	if sourceURL == "" {
		abs, _ := filepath.Abs(path)
		sourceURL = "file://" + abs
	}
	return domain.Envelope{
		ExtractionDate: time.Now().UTC(),
		SourceURL:      sourceURL,
		Results:        ex.Run(ctx, htmlpage.FileOpener{Path: path}, sourceURL),
	}
}

func batch(ctx context.Context, path string, extractOne func(string) (domain.Envelope, error), out *printer, w domain.EnvelopeWriter, save bool) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Msg("open url list")
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var done, failed int
	for sc.Scan() {
		u := strings.TrimSpace(sc.Text())
		if u == "" || strings.HasPrefix(u, "#") {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		env, err := extractOne(u)
		if err != nil && env.ID == "" {
			log.Warn().Err(err).Str("url", u).Msg("skipped")
			failed++
			continue
		}
		out.print(env)
		if save {
			saveEnvelope(w, env)
		}
		if env.Results.Failed() {
			failed++
		} else {
			done++
		}
	}
	if err := sc.Err(); err != nil {
		log.Error().Err(err).Msg("read url list")
	}
	log.Info().Int("ok", done).Int("failed", failed).Msg("batch completed")
}

func interactive(ctx context.Context, in io.Reader, extractOne func(string) (domain.Envelope, error), out *printer, w domain.EnvelopeWriter) {
	sc := bufio.NewScanner(in)
	ask := func(prompt string) (string, bool) {
		fmt.Fprintf(out.w, "%s\n> ", prompt)
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(sc.Text()), true
	}

	for ctx.Err() == nil {
		u, ok := ask("Enter a Google Maps place URL (or 'quit' to exit):")
		if !ok {
			return
		}
		switch strings.ToLower(u) {
		case "quit", "exit", "q":
			fmt.Fprintln(out.w, "Goodbye.")
			return
		case "":
			fmt.Fprintln(out.w, "URL cannot be empty.")
			continue
		}
		if _, err := app.ValidatePlaceURL(u); err != nil {
			fmt.Fprintln(out.w, "Invalid URL. Example: https://www.google.com/maps/place/...")
			continue
		}

		fmt.Fprintln(out.w, "Extracting, this may take a few seconds...")
		env, err := extractOne(u)
		if err != nil {
			log.Error().Err(err).Str("url", u).Msg("extraction")
		}
		out.print(env)

		if a, ok := ask("Save the results to a JSON file? (y/n)"); ok && strings.HasPrefix(strings.ToLower(a), "y") {
			saveEnvelope(w, env)
		}
		if a, ok := ask("Extract another URL? (y/n)"); !ok || !strings.HasPrefix(strings.ToLower(a), "y") {
			return
		}
	}
}

func saveEnvelope(w domain.EnvelopeWriter, env domain.Envelope) {
	path, err := w.Write(env)
	if err != nil {
		log.Error().Err(err).Msg("save envelope")
		return
	}
	log.Info().Str("path", path).Msg("results saved")
}
