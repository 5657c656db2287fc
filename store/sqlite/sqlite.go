/*
Package sqlite provides a SQLite-backed implementation of the record store.

PURPOSE:
  Implements longterm.Store (entries, templates, plans) using SQLite. The
  projection engine never touches the database: handlers load snapshots
  through this store and pass plain values to longterm.Project.

INTERFACES IMPLEMENTED:
  generic.EntryStore:    income/expense/saving records
  generic.TemplateStore: named entry groups per kind
  longterm.PlanStore:    plans with periods and financing

KEY TABLES:
  entries:               all three kinds, told apart by the kind column
  templates:             named groups, one kind each
  template_entries:      template membership (cascades on entry delete)
  plans:                 balances, return rate, financing columns
  plan_periods:          month windows of a plan
  plan_period_templates: template ids selected per period and kind

NUMBERS:
  Amounts are stored as decimal strings (TEXT) so no float rounding ever
  touches persisted money. Months are stored as "YYYY-MM", which sorts
  chronologically as text.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single open connection, which
  also keeps ":memory:" databases alive for the store's lifetime.

USAGE:
  store, err := sqlite.New("./financeflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Versioned SQL files under migrations/ are embedded and applied on New()
  through golang-migrate.

SEE ALSO:
  - longterm/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements longterm.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ longterm.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset deletes every record and restarts the id sequences.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"plan_period_templates", "plan_periods", "plans",
		"template_entries", "templates", "entries",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence"); err != nil {
		return fmt.Errorf("failed to reset sequences: %w", err)
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// ENTRIES (generic.EntryStore interface)
// =============================================================================

// CreateEntry validates and stores an entry.
func (s *Store) CreateEntry(ctx context.Context, kind generic.Kind, e generic.Entry) (generic.Entry, error) {
	e, err := e.Normalized(kind)
	if err != nil {
		return generic.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (kind, name, amount, description, category, is_annual_payment, annual_month, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(kind),
		e.Name,
		e.Amount.String(),
		e.Description,
		e.Category,
		e.IsAnnualPayment,
		nullMonth(e.AnnualMonth),
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return generic.Entry{}, fmt.Errorf("failed to insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return generic.Entry{}, fmt.Errorf("failed to read entry id: %w", err)
	}
	e.ID = generic.EntryID(id)
	return e, nil
}

// ListEntries returns all entries of a kind, newest first.
func (s *Store) ListEntries(ctx context.Context, kind generic.Kind) ([]generic.Entry, error) {
	if !kind.Valid() {
		return nil, generic.ErrInvalidKind
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, description, category, is_annual_payment, annual_month, created_at
		FROM entries
		WHERE kind = ?
		ORDER BY id DESC
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var result []generic.Entry
	for rows.Next() {
		var (
			e           generic.Entry
			amount      string
			annualMonth sql.NullInt64
			createdAt   string
		)
		if err := rows.Scan(&e.ID, &e.Name, &amount, &e.Description, &e.Category, &e.IsAnnualPayment, &annualMonth, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("entry %d: bad amount %q: %w", e.ID, amount, err)
		}
		if annualMonth.Valid {
			e.AnnualMonth = time.Month(annualMonth.Int64)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, e)
	}
	return result, rows.Err()
}

// DeleteEntry removes an entry; template membership cascades.
func (s *Store) DeleteEntry(ctx context.Context, kind generic.Kind, id generic.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE kind = ? AND id = ?", string(kind), id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return requireAffected(res)
}

// =============================================================================
// TEMPLATES (generic.TemplateStore interface)
// =============================================================================

// CreateTemplate stores a template after checking every entry exists in
// the same kind.
func (s *Store) CreateTemplate(ctx context.Context, kind generic.Kind, t generic.Template) (generic.Template, error) {
	if !kind.Valid() {
		return generic.Template{}, generic.ErrInvalidKind
	}
	t, err := t.Normalized()
	if err != nil {
		return generic.Template{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return generic.Template{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var missing []int64
	for _, id := range t.EntryIDs {
		var found int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM entries WHERE kind = ? AND id = ?", string(kind), id).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			missing = append(missing, int64(id))
			continue
		}
		if err != nil {
			return generic.Template{}, fmt.Errorf("failed to check entry %d: %w", id, err)
		}
	}
	if len(missing) > 0 {
		return generic.Template{}, &generic.MissingError{What: string(kind) + " entries", IDs: missing}
	}

	t.CreatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO templates (kind, name, description, created_at) VALUES (?, ?, ?, ?)",
		string(kind), t.Name, t.Description, t.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return generic.Template{}, fmt.Errorf("failed to insert template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return generic.Template{}, fmt.Errorf("failed to read template id: %w", err)
	}
	t.ID = generic.TemplateID(id)

	for pos, entryID := range t.EntryIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO template_entries (template_id, entry_id, position) VALUES (?, ?, ?)",
			t.ID, entryID, pos,
		); err != nil {
			return generic.Template{}, fmt.Errorf("failed to link entry %d: %w", entryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return generic.Template{}, fmt.Errorf("failed to commit template: %w", err)
	}
	return t, nil
}

// ListTemplates returns all templates of a kind with their entry ids,
// newest first.
func (s *Store) ListTemplates(ctx context.Context, kind generic.Kind) ([]generic.Template, error) {
	if !kind.Valid() {
		return nil, generic.ErrInvalidKind
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM templates
		WHERE kind = ?
		ORDER BY id DESC
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	var result []generic.Template
	index := make(map[generic.TemplateID]int)
	for rows.Next() {
		var (
			t         generic.Template
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		t.EntryIDs = []generic.EntryID{}
		index[t.ID] = len(result)
		result = append(result, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := s.db.QueryContext(ctx, `
		SELECT te.template_id, te.entry_id
		FROM template_entries te
		JOIN templates t ON t.id = te.template_id
		WHERE t.kind = ?
		ORDER BY te.template_id, te.position
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query template entries: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var (
			templateID generic.TemplateID
			entryID    generic.EntryID
		)
		if err := links.Scan(&templateID, &entryID); err != nil {
			return nil, fmt.Errorf("failed to scan template entry: %w", err)
		}
		if i, ok := index[templateID]; ok {
			result[i].EntryIDs = append(result[i].EntryIDs, entryID)
		}
	}
	return result, links.Err()
}

// DeleteTemplate removes a template. Plans referencing it keep the id.
func (s *Store) DeleteTemplate(ctx context.Context, kind generic.Kind, id generic.TemplateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE kind = ? AND id = ?", string(kind), id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return requireAffected(res)
}

// =============================================================================
// HELPERS
// =============================================================================

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

func nullMonth(m time.Month) sql.NullInt64 {
	if m < time.January || m > time.December {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(m), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(column, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad %s %q: %w", column, s, err)
	}
	return d, nil
}
