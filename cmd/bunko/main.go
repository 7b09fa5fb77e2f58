// Command bunko serves a private PDF library with page-level full-text
// search over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bunko-dev/bunko/internal/config"
	"github.com/bunko-dev/bunko/internal/engine"
	"github.com/bunko-dev/bunko/internal/index"
	"github.com/bunko-dev/bunko/internal/logging"
	"github.com/bunko-dev/bunko/internal/pdftext"
	"github.com/bunko-dev/bunko/internal/scanner"
	"github.com/bunko-dev/bunko/internal/web"
)

const Version = "0.3.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bunko: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.toml", "Path to TOML config file")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	corpusDir := flag.String("corpus", "", "PDF corpus directory (overrides config)")
	dbPath := flag.String("db", "", "Index database path (overrides config)")
	token := flag.String("token", "", "Bearer token for API access (overrides config)")
	debug := flag.Bool("debug", false, "Log to stderr at debug level")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("bunko", Version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *corpusDir != "" {
		cfg.CorpusDir = *corpusDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *token != "" {
		cfg.Token = *token
	}

	logCfg := logging.Config{
		LogDir:     cfg.Logs.Dir,
		Level:      cfg.Logs.Level,
		MaxSizeMB:  cfg.Logs.MaxSizeMB,
		MaxBackups: cfg.Logs.MaxBackups,
		Debug:      *debug,
	}
	if *debug {
		logCfg.Level = "debug"
		logCfg.Format = "text"
		logCfg.Writer = os.Stderr
	}
	logging.Init(logCfg)
	defer logging.Shutdown()
	log := logging.Logger()

	if _, err := os.Stat(cfg.CorpusDir); err != nil {
		return fmt.Errorf("corpus directory %s: %w", cfg.CorpusDir, err)
	}

	store, err := index.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return err
	}

	sc := scanner.New(store, pdftext.NewReader(), cfg.CorpusDir)
	gate := scanner.NewGate(cfg.SyncInterval(), sc.Sync)
	eng := engine.New(store, gate, cfg.SnippetWindow)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Prewarm {
		log.Info("prewarm_start", slog.String("corpus", cfg.CorpusDir))
		eng.Refresh(ctx)
	}

	srv := web.NewServer(web.Config{
		ListenAddr: cfg.ListenAddr,
		Token:      cfg.Token,
		CorpusDir:  cfg.CorpusDir,
		ThumbsDir:  cfg.ThumbsDir,
		Engine:     eng,
	}, store)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", srv.Addr()), slog.String("version", Version))
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
