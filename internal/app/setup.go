package app

import (
	"context"
	"fmt"
	"time"

	"github.com/openlms/ask4summary/db"
	"github.com/openlms/ask4summary/internal/acquire"
	"github.com/openlms/ask4summary/internal/answer"
	"github.com/openlms/ask4summary/internal/config"
	"github.com/openlms/ask4summary/internal/crawler"
	"github.com/openlms/ask4summary/internal/log"
	"github.com/openlms/ask4summary/internal/moodle"
	"github.com/openlms/ask4summary/internal/ngram"
	"github.com/openlms/ask4summary/internal/scan"
	"github.com/openlms/ask4summary/internal/store"
)

// Setup builds the application container: it runs pending migrations,
// opens the connection pool, and constructs every client and scanner.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := store.NewPool(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, err
	}
	a.DBPool = pool
	a.Store = store.New(pool, logger)

	a.Moodle, err = moodle.New(cfg.Moodle.BaseURL, cfg.Moodle.Token, logger)
	if err != nil {
		return nil, err
	}

	a.Ngram, err = provideNgramClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	a.Acquirer = acquire.New(cfg.Converter, logger)
	a.Crawler = crawler.New(cfg.Crawler, logger)

	a.Docs = scan.NewDocsScanner(a.Store, a.Moodle, a.Acquirer, a.Crawler, a.Ngram, logger)
	a.Forums = scan.NewForumsScanner(a.Store, a.Moodle, a.Ngram, logger)
	a.Answerer = answer.New(a.Store, a.Moodle, logger)

	return a, nil
}

// provideNgramClient translates the flat configuration into the client's
// own config type.
func provideNgramClient(cfg *config.Config, logger log.Logger) (*ngram.Client, error) {
	return ngram.New(ngram.Config{
		Endpoint:          cfg.Linguistic.Endpoint,
		Timeout:           time.Duration(cfg.Linguistic.TimeoutMS) * time.Millisecond,
		RequestsPerSecond: cfg.Linguistic.RequestsPerSecond,
	}, logger)
}
