// Package app wires configuration, storage, and the service clients into a
// ready-to-run application container.
package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

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

// App is the application container. Commands take what they need from it
// and call Close when done.
type App struct {
	Config *config.Config
	Logger log.Logger

	DBPool *pgxpool.Pool
	Store  *store.Store

	Moodle   *moodle.Client
	Ngram    *ngram.Client
	Acquirer *acquire.Acquirer
	Crawler  *crawler.Crawler

	Docs     *scan.DocsScanner
	Forums   *scan.ForumsScanner
	Answerer *answer.Answerer
}

// Close releases held resources.
func (a *App) Close() {
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}
}
