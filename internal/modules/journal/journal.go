// Package journal records module lifecycle events in a SQLite database.
//
// The journal observes every module (see engine.Observer), buffers events in
// memory and writes them in one transaction per interval, so ticks never wait
// on disk more than once per flush.
//
// Options ([journal] section):
//
//	path          database file (hap-journal.db in the configuration dir)
//	wal           enable WAL mode (true)
//	busy_timeout  lock wait, Go duration or seconds (5s)
//	interval      flush interval (1s)
package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nerrad567/hap-engine/internal/engine"
	"github.com/nerrad567/hap-engine/internal/infrastructure/database"
	"github.com/nerrad567/hap-engine/internal/infrastructure/logging"
	"github.com/nerrad567/hap-engine/internal/ini"
	"github.com/nerrad567/hap-engine/internal/modules/options"
	"github.com/nerrad567/hap-engine/migrations"
)

// ID is the identifier the journal module registers under.
const ID = "journal"

// DefaultFile is the database file name used when no path is configured.
const DefaultFile = "hap-journal.db"

// writeTimeout bounds a single flush.
const writeTimeout = 5 * time.Second

// Module implements engine.Module and engine.Observer.
type Module struct{}

// New returns the journal module factory product.
func New() engine.Module {
	return &Module{}
}

// Record is one buffered lifecycle event.
type Record struct {
	Module string
	Event  string
	Detail string
	At     time.Time
}

// Journal is the module state.
type Journal struct {
	db       *database.DB
	interval time.Duration
	log      *logging.Logger

	runID   string
	engine  string
	pending []Record
	written int
	updates int
}

// DB returns the underlying database.
func (j *Journal) DB() *database.DB { return j.db }

// Written returns the number of records flushed so far.
func (j *Journal) Written() int { return j.written }

// Pending returns the number of buffered records.
func (j *Journal) Pending() int { return len(j.pending) }

// Create opens and migrates the database.
func (m *Module) Create(ctx *engine.Context, section *ini.Section) (engine.State, error) {
	r := options.NewReader(section)
	path := r.String("path", filepath.Join(ctx.ConfigDir(), DefaultFile))
	wal := r.Bool("wal", true)
	busy := r.Duration("busy_timeout", 5*time.Second)
	interval := r.Duration("interval", time.Second)
	if err := r.Err(); err != nil {
		return nil, err
	}

	db, err := database.Open(database.Config{Path: path, WALMode: wal, BusyTimeout: busy})
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	mctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	applied, err := db.Migrate(mctx, migrations.FS)
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("journal: %w", err)
	}

	j := &Journal{
		db:       db,
		interval: interval,
		log:      ctx.ModuleLogger(ID),
		runID:    ctx.RunID(),
		engine:   ctx.Name(),
	}
	j.log.Debug("journal opened", "path", path, "migrations_applied", applied)
	return j, nil
}

// Load registers the engine run.
func (m *Module) Load(ctx *engine.Context, state engine.State, _ string) error {
	j := state.(*Journal)

	wctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_, err := j.db.ExecContext(wctx,
		`INSERT INTO engine_runs (run_id, engine, version, started_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id) DO NOTHING`,
		j.runID, j.engine, ctx.Version(), ctx.Started().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("journal: registering run: %w", err)
	}
	return nil
}

// Update flushes buffered events.
func (m *Module) Update(_ *engine.Context, state engine.State) (time.Time, error) {
	j := state.(*Journal)
	j.updates++
	if err := j.flush(); err != nil {
		return time.Time{}, err
	}
	return time.Now().Add(j.interval), nil
}

// Render does nothing; the journal has no per-frame work.
func (m *Module) Render(*engine.Context, engine.State) {}

// Unload flushes what is left and closes the run record.
func (m *Module) Unload(_ *engine.Context, state engine.State) {
	j := state.(*Journal)
	if err := j.flush(); err != nil {
		j.log.Error("final journal flush failed", "error", err, "dropped", len(j.pending))
	}

	wctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := j.db.ExecContext(wctx,
		"UPDATE engine_runs SET stopped_at = ?, updates = ? WHERE run_id = ?",
		time.Now().UTC().Format(time.RFC3339Nano), j.updates, j.runID,
	); err != nil {
		j.log.Error("closing run record failed", "error", err)
	}
}

// Destroy closes the database.
func (m *Module) Destroy(_ *engine.Context, state engine.State) {
	j := state.(*Journal)
	if err := j.db.Close(); err != nil {
		j.log.Error("closing journal failed", "error", err)
	}
}

// Observe buffers a lifecycle event.
func (m *Module) Observe(_ *engine.Context, state engine.State, ev engine.Event) {
	j := state.(*Journal)
	rec := Record{Module: ev.Module, Event: ev.Kind.String(), At: ev.At}
	if ev.Err != nil {
		rec.Detail = ev.Err.Error()
	}
	j.pending = append(j.pending, rec)
}

// flush writes the pending records in a single transaction.
func (j *Journal) flush() error {
	if len(j.pending) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO module_events (run_id, engine, module, event, detail, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("journal: preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range j.pending {
		var detail any
		if rec.Detail != "" {
			detail = rec.Detail
		}
		if _, err := stmt.ExecContext(ctx,
			j.runID, j.engine, rec.Module, rec.Event, detail,
			rec.At.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("journal: inserting event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: committing events: %w", err)
	}

	j.written += len(j.pending)
	j.log.Debug("journal flushed", "records", len(j.pending))
	j.pending = j.pending[:0]
	return nil
}

// Events returns the recorded events of a run in insertion order.
func Events(ctx context.Context, db *database.DB, runID string) ([]Record, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT module, event, COALESCE(detail, ''), occurred_at
		 FROM module_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying module events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var at string
		if err := rows.Scan(&rec.Module, &rec.Event, &rec.Detail, &at); err != nil {
			return nil, fmt.Errorf("scanning module event: %w", err)
		}
		rec.At, _ = time.Parse(time.RFC3339Nano, at) //nolint:errcheck // format is ours
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating module events: %w", err)
	}
	return records, nil
}
