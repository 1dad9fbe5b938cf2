// Package storage implements the store ports on top of SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"nordenzelt/internal/core"
	"nordenzelt/internal/store"

	_ "modernc.org/sqlite"
)

// SyncState tracks whether an event has been mirrored to the external
// calendar and what went wrong when it has not.
type SyncState struct {
	EventID     string
	Synced      bool
	SyncError   string
	GCalEventID string
}

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, address, event_time, manager_name, venue_name, reminder, agreed_price_cents
		FROM events ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	index := make(map[string]int)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		index[ev.ID] = len(events)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	if len(events) == 0 {
		return events, nil
	}

	expRows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, type, quantity, unit_price_cents, total_cents
		FROM expenses ORDER BY event_id, id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer expRows.Close()

	for expRows.Next() {
		var exp core.Expense
		var eventID string
		if err := expRows.Scan(&exp.ID, &eventID, &exp.Type, &exp.Quantity, &exp.UnitPrice.Cents, &exp.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if i, ok := index[eventID]; ok {
			events[i].Expenses = append(events[i].Expenses, exp)
		}
	}
	if err := expRows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	return events, nil
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (core.Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, address, event_time, manager_name, venue_name, reminder, agreed_price_cents
		FROM events WHERE id = ?`, id)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Event{}, store.ErrNotFound
	}
	if err != nil {
		return core.Event{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, quantity, unit_price_cents, total_cents
		FROM expenses WHERE event_id = ? ORDER BY id`, id)
	if err != nil {
		return core.Event{}, fmt.Errorf("get expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var exp core.Expense
		if err := rows.Scan(&exp.ID, &exp.Type, &exp.Quantity, &exp.UnitPrice.Cents, &exp.Total.Cents); err != nil {
			return core.Event{}, fmt.Errorf("scan expense: %w", err)
		}
		ev.Expenses = append(ev.Expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return core.Event{}, fmt.Errorf("get expenses: %w", err)
	}

	return ev, nil
}

// SaveEvent upserts the event row and replaces its expense rows in a
// single transaction, so a failed insert never leaves the event with a
// partial expense set. Every save resets the sync flag; the worker
// picks the event up again.
func (r *SQLiteRepository) SaveEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Event{}, fmt.Errorf("begin save event: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, date, address, event_time, manager_name, venue_name, reminder, agreed_price_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			address = excluded.address,
			event_time = excluded.event_time,
			manager_name = excluded.manager_name,
			venue_name = excluded.venue_name,
			reminder = excluded.reminder,
			agreed_price_cents = excluded.agreed_price_cents,
			synced = 0,
			sync_error = '',
			updated_at = datetime('now')`,
		ev.ID, ev.Date.String(), ev.Address, ev.EventTime, ev.ManagerName, ev.VenueName, ev.Reminder, ev.AgreedPrice.Cents)
	if err != nil {
		return core.Event{}, fmt.Errorf("upsert event: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE event_id = ?`, ev.ID); err != nil {
		return core.Event{}, fmt.Errorf("clear expenses: %w", err)
	}

	for i := range ev.Expenses {
		ev.Expenses[i].ID = uuid.NewString()
		exp := ev.Expenses[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, event_id, type, quantity, unit_price_cents, total_cents)
			VALUES (?, ?, ?, ?, ?, ?)`,
			exp.ID, ev.ID, exp.Type, exp.Quantity, exp.UnitPrice.Cents, exp.Total.Cents)
		if err != nil {
			return core.Event{}, fmt.Errorf("insert expense: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Event{}, fmt.Errorf("commit save event: %w", err)
	}

	slog.InfoContext(ctx, "Event saved",
		"id", ev.ID,
		"date", ev.Date.String(),
		"expenses", len(ev.Expenses),
		"agreed_price_cents", ev.AgreedPrice.Cents)

	return ev, nil
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListAssets(ctx context.Context, section string) ([]core.SiteAsset, error) {
	query := `SELECT id, url, section, display_order FROM site_assets`
	args := []any{}
	if section != "" {
		query += ` WHERE section = ?`
		args = append(args, section)
	}
	query += ` ORDER BY display_order, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []core.SiteAsset
	for rows.Next() {
		var a core.SiteAsset
		if err := rows.Scan(&a.ID, &a.URL, &a.Section, &a.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *SQLiteRepository) GetAsset(ctx context.Context, id string) (core.SiteAsset, error) {
	var a core.SiteAsset
	err := r.db.QueryRowContext(ctx,
		`SELECT id, url, section, display_order FROM site_assets WHERE id = ?`, id).
		Scan(&a.ID, &a.URL, &a.Section, &a.DisplayOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SiteAsset{}, store.ErrNotFound
	}
	if err != nil {
		return core.SiteAsset{}, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) AddAsset(ctx context.Context, a core.SiteAsset) (core.SiteAsset, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO site_assets (id, url, section, display_order) VALUES (?, ?, ?, ?)`,
		a.ID, a.URL, a.Section, a.DisplayOrder)
	if err != nil {
		return core.SiteAsset{}, fmt.Errorf("add asset: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) DeleteAsset(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM site_assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListContent(ctx context.Context) ([]core.SiteContent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, section, key, label, value FROM site_content ORDER BY section, key`)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var content []core.SiteContent
	for rows.Next() {
		var c core.SiteContent
		if err := rows.Scan(&c.ID, &c.Section, &c.Key, &c.Label, &c.Value); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		content = append(content, c)
	}
	return content, rows.Err()
}

func (r *SQLiteRepository) UpdateContent(ctx context.Context, id, value string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE site_content SET value = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListGalleryItems(ctx context.Context) ([]core.GalleryItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url, type, title, description, COALESCE(folder_id, ''), display_order, created_at
		FROM gallery_content ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list gallery items: %w", err)
	}
	defer rows.Close()

	var items []core.GalleryItem
	for rows.Next() {
		it, err := scanGalleryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) GetGalleryItem(ctx context.Context, id string) (core.GalleryItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, url, type, title, description, COALESCE(folder_id, ''), display_order, created_at
		FROM gallery_content WHERE id = ?`, id)

	it, err := scanGalleryItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.GalleryItem{}, store.ErrNotFound
	}
	return it, err
}

func (r *SQLiteRepository) AddGalleryItem(ctx context.Context, it core.GalleryItem) (core.GalleryItem, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gallery_content (id, url, type, title, description, folder_id, display_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.URL, string(it.Type), it.Title, it.Description,
		nullableID(it.FolderID), it.DisplayOrder, it.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.GalleryItem{}, fmt.Errorf("add gallery item: %w", err)
	}
	return it, nil
}

func (r *SQLiteRepository) UpdateGalleryItem(ctx context.Context, it core.GalleryItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE gallery_content
		SET title = ?, description = ?, folder_id = ?, display_order = ?
		WHERE id = ?`,
		it.Title, it.Description, nullableID(it.FolderID), it.DisplayOrder, it.ID)
	if err != nil {
		return fmt.Errorf("update gallery item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteGalleryItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gallery_content WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete gallery item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListFolders(ctx context.Context) ([]core.GalleryFolder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description FROM gallery_folders ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []core.GalleryFolder
	for rows.Next() {
		var f core.GalleryFolder
		if err := rows.Scan(&f.ID, &f.Name, &f.Description); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (r *SQLiteRepository) AddFolder(ctx context.Context, f core.GalleryFolder) (core.GalleryFolder, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gallery_folders (id, name, description) VALUES (?, ?, ?)`,
		f.ID, f.Name, f.Description)
	if err != nil {
		return core.GalleryFolder{}, fmt.Errorf("add folder: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) DeleteFolder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gallery_folders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListPendingSync returns events whose latest save has not reached the
// external calendar yet. The worker also calls this on startup to catch
// saves made while the broker was down.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, address, event_time, manager_name, venue_name, reminder, agreed_price_cents
		FROM events WHERE synced = 0 ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *SQLiteRepository) GetSyncState(ctx context.Context, eventID string) (SyncState, error) {
	var st SyncState
	var synced int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, synced, sync_error, gcal_event_id FROM events WHERE id = ?`, eventID).
		Scan(&st.EventID, &synced, &st.SyncError, &st.GCalEventID)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncState{}, store.ErrNotFound
	}
	if err != nil {
		return SyncState{}, fmt.Errorf("get sync state: %w", err)
	}
	st.Synced = synced != 0
	return st, nil
}

// GCalEventID returns the stored calendar id for an event, empty when
// the event was never mirrored.
func (r *SQLiteRepository) GCalEventID(ctx context.Context, eventID string) (string, error) {
	st, err := r.GetSyncState(ctx, eventID)
	if err != nil {
		return "", err
	}
	return st.GCalEventID, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, eventID, gcalEventID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET synced = 1, sync_error = '', gcal_event_id = ? WHERE id = ?`,
		gcalEventID, eventID)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, eventID, msg string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET synced = 0, sync_error = ? WHERE id = ?`, msg, eventID)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (core.Event, error) {
	var ev core.Event
	var date string
	err := row.Scan(&ev.ID, &date, &ev.Address, &ev.EventTime, &ev.ManagerName, &ev.VenueName, &ev.Reminder, &ev.AgreedPrice.Cents)
	if err != nil {
		return core.Event{}, err
	}
	ev.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Event{}, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	return ev, nil
}

func scanGalleryItem(row scanner) (core.GalleryItem, error) {
	var it core.GalleryItem
	var typ, created string
	err := row.Scan(&it.ID, &it.URL, &typ, &it.Title, &it.Description, &it.FolderID, &it.DisplayOrder, &created)
	if err != nil {
		return core.GalleryItem{}, err
	}
	it.Type = core.MediaType(typ)
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		it.CreatedAt = t
	} else if t, err := time.Parse("2006-01-02 15:04:05", created); err == nil {
		it.CreatedAt = t
	}
	return it, nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
