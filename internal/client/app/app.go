// Package app wires the client together: database, repositories, remote
// client, reconciliation engine, services and the background loops.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avlasov/paperdock/internal/client/config"
	"github.com/avlasov/paperdock/internal/client/remote"
	"github.com/avlasov/paperdock/internal/client/repositories/correspondents"
	"github.com/avlasov/paperdock/internal/client/repositories/doctypes"
	"github.com/avlasov/paperdock/internal/client/repositories/documents"
	"github.com/avlasov/paperdock/internal/client/repositories/metadata"
	"github.com/avlasov/paperdock/internal/client/repositories/pending"
	"github.com/avlasov/paperdock/internal/client/repositories/tags"
	"github.com/avlasov/paperdock/internal/client/repositories/usage"
	"github.com/avlasov/paperdock/internal/client/services"
	"github.com/avlasov/paperdock/internal/client/sync"
	"github.com/avlasov/paperdock/internal/client/watcher"
	"github.com/avlasov/paperdock/internal/logging"
)

// Mode is the client's view of server reachability.
type Mode int

const (
	ModeOffline Mode = iota
	ModeOnline
)

func (m Mode) String() string {
	if m == ModeOnline {
		return "online"
	}
	return "offline"
}

// Repositories bundles every store for injection.
type Repositories struct {
	DB             *sql.DB
	Documents      documents.Repository
	Tags           tags.Repository
	Correspondents correspondents.Repository
	DocumentTypes  doctypes.Repository
	Pending        pending.Repository
	Metadata       metadata.Repository
	Usage          usage.Repository
}

// App is the assembled client.
type App struct {
	cfg    *config.Config
	log    logging.Logger
	repos  *Repositories
	remote remote.API
	engine *sync.Engine

	Documents *services.DocumentService
	Catalog   *services.CatalogService
	Usage     *services.UsageService

	mu   gosync.Mutex
	mode Mode
}

// InitDatabase opens the sqlite file, runs migrations and builds the
// repository set.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repositories{
		DB:             db,
		Documents:      documents.NewSQLiteRepository(db),
		Tags:           tags.NewSQLiteRepository(db),
		Correspondents: correspondents.NewSQLiteRepository(db),
		DocumentTypes:  doctypes.NewSQLiteRepository(db),
		Pending:        pending.NewSQLiteRepository(db),
		Metadata:       metadata.NewSQLiteRepository(db),
		Usage:          usage.NewSQLiteRepository(db),
	}, nil
}

// New assembles an App from configuration.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	repos, err := InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	api := remote.NewRESTClient(cfg.ServerURL, cfg.APIToken)
	engine := sync.NewEngine(repos.DB, api, log.With("component", "sync"),
		sync.WithBatchSize(cfg.DrainBatchSize))

	a := &App{
		cfg:    cfg,
		log:    log,
		repos:  repos,
		remote: api,
		engine: engine,
	}
	a.Documents = services.NewDocumentService(repos.Documents, repos.Pending, repos.Metadata, engine, log.With("component", "documents"))
	a.Catalog = services.NewCatalogService(repos.Tags, repos.Correspondents, repos.DocumentTypes, repos.Pending, repos.Metadata, engine, log.With("component", "catalog"))
	a.Usage = services.NewUsageService(repos.Usage, log.With("component", "usage"))
	return a, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.repos.DB.Close()
}

// SyncState reports the engine's current phase and last outcome.
func (a *App) SyncState() sync.State { return a.engine.Observe() }

// TriggerSync starts a reconciliation cycle fire-and-forget.
func (a *App) TriggerSync() { a.engine.TriggerSync() }

// RunCycle runs one reconciliation cycle synchronously.
func (a *App) RunCycle(ctx context.Context) bool { return a.engine.RunCycle(ctx) }

// PendingCount reports how many local changes await reconciliation.
func (a *App) PendingCount(ctx context.Context) (int64, error) {
	return a.repos.Pending.Count(ctx)
}

// Mode reports the last observed connectivity state.
func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Run starts the background loops and blocks until the context is cancelled:
// a periodic sync, the connectivity watcher, the maintenance sweeps and, when
// configured, the scan-inbox watcher.
func (a *App) Run(ctx context.Context) error {
	var wg gosync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.startSyncLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.startOnlineStatusWatcher(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.startMaintenanceLoop(ctx)
	}()

	if a.cfg.InboxDir != "" {
		w := watcher.NewInboxWatcher(a.cfg.InboxDir, a.Documents, a.log.With("component", "inbox"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				a.log.Error(ctx, "inbox watcher stopped", "error", err)
			}
		}()
	}

	a.engine.TriggerSync()
	wg.Wait()
	return nil
}

func (a *App) startSyncLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.engine.TriggerSync()
		case <-ctx.Done():
			return
		}
	}
}

// startOnlineStatusWatcher probes the server periodically. The transition
// from offline to online triggers an immediate sync cycle.
func (a *App) startOnlineStatusWatcher(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.OnlineCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.remote.Ping(pingCtx)
			cancel()

			a.mu.Lock()
			prev := a.mode
			if err != nil {
				a.mode = ModeOffline
			} else {
				a.mode = ModeOnline
			}
			mode := a.mode
			a.mu.Unlock()

			if prev != mode {
				a.log.Info(ctx, "connectivity changed", "mode", mode.String())
			}
			if prev == ModeOffline && mode == ModeOnline {
				a.engine.TriggerSync()
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) startMaintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.RunMaintenance(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunMaintenance purges expired tombstones from every cache table and old
// rows from the usage ledger. Idempotent; a second run right after is a
// no-op.
func (a *App) RunMaintenance(ctx context.Context) {
	cutoff := time.Now().Add(-a.cfg.TombstoneRetention).UnixMilli()

	purged := int64(0)
	for name, purge := range map[string]func(context.Context, int64) (int64, error){
		"documents":      a.repos.Documents.PurgeDeletedOlderThan,
		"tags":           a.repos.Tags.PurgeDeletedOlderThan,
		"correspondents": a.repos.Correspondents.PurgeDeletedOlderThan,
		"document_types": a.repos.DocumentTypes.PurgeDeletedOlderThan,
	} {
		n, err := purge(ctx, cutoff)
		if err != nil {
			a.log.Error(ctx, "tombstone purge failed", "table", name, "error", err)
			continue
		}
		purged += n
	}
	if purged > 0 {
		a.log.Info(ctx, "tombstones purged", "rows", purged)
	}

	if _, err := a.Usage.CleanupOldLogs(ctx); err != nil {
		a.log.Error(ctx, "usage cleanup failed", "error", err)
	}
}
