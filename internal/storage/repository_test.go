package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"nordenzelt/internal/core"
	"nordenzelt/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveEventRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ev, err := repo.SaveEvent(ctx, core.Event{
		Date:        core.NewDate(2025, 3, 15),
		Address:     "Av. Libertador 1200",
		EventTime:   "18:00",
		ManagerName: "Marta",
		VenueName:   "Salón Norte",
		AgreedPrice: core.Money{Cents: 5000000},
		Expenses: []core.Expense{
			{Type: "Sillas", Quantity: 2, UnitPrice: core.Money{Cents: 50000}, Total: core.Money{Cents: 100000}},
			{Type: "Flete", Quantity: 1, UnitPrice: core.Money{Cents: 300000}, Total: core.Money{Cents: 300000}},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("event id not assigned")
	}

	got, err := repo.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Date.String() != "2025-03-15" || got.ManagerName != "Marta" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if len(got.Expenses) != 2 || got.Expenses[0].Total.Cents+got.Expenses[1].Total.Cents != 400000 {
		t.Fatalf("unexpected expenses: %+v", got.Expenses)
	}
	if got.Profit().Cents != 4600000 {
		t.Fatalf("profit = %d, want 4600000", got.Profit().Cents)
	}
}

func TestSaveEventReplacesExpensesAtomically(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ev, err := repo.SaveEvent(ctx, core.Event{
		Date:     core.NewDate(2025, 5, 1),
		Expenses: []core.Expense{{Type: "Carpa", Quantity: 1, Total: core.Money{Cents: 100}}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	ev.Expenses = []core.Expense{
		{Type: "Luces", Quantity: 4, Total: core.Money{Cents: 400}},
		{Type: "Sonido", Quantity: 1, Total: core.Money{Cents: 900}},
	}
	if _, err := repo.SaveEvent(ctx, ev); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, err := repo.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Expenses) != 2 {
		t.Fatalf("expected 2 expenses after replace, got %d", len(got.Expenses))
	}
	for _, exp := range got.Expenses {
		if exp.Type == "Carpa" {
			t.Fatal("old expense row survived the replace")
		}
	}
}

func TestDeleteEventCascadesExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ev, err := repo.SaveEvent(ctx, core.Event{
		Date:     core.NewDate(2025, 7, 1),
		Expenses: []core.Expense{{Type: "Carpa", Total: core.Money{Cents: 100}}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := repo.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetEvent(ctx, ev.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var n int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM expenses`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected cascade to remove expenses, %d left", n)
	}
}

func TestSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ev, err := repo.SaveEvent(ctx, core.Event{Date: core.NewDate(2025, 9, 1)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	pending, err := repo.ListPendingSync(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != ev.ID {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	if err := repo.MarkSynced(ctx, ev.ID, "gcal-123"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	st, err := repo.GetSyncState(ctx, ev.ID)
	if err != nil {
		t.Fatalf("sync state: %v", err)
	}
	if !st.Synced || st.GCalEventID != "gcal-123" || st.SyncError != "" {
		t.Fatalf("unexpected state: %+v", st)
	}

	// Re-saving dirties the event again but keeps the calendar id.
	if _, err := repo.SaveEvent(ctx, ev); err != nil {
		t.Fatalf("resave: %v", err)
	}
	st, _ = repo.GetSyncState(ctx, ev.ID)
	if st.Synced || st.GCalEventID != "gcal-123" {
		t.Fatalf("unexpected state after resave: %+v", st)
	}

	if err := repo.MarkSyncError(ctx, ev.ID, "calendar unavailable"); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	st, _ = repo.GetSyncState(ctx, ev.ID)
	if st.Synced || st.SyncError != "calendar unavailable" {
		t.Fatalf("unexpected state after error: %+v", st)
	}
}

func TestContentSeedAndUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	content, err := repo.ListContent(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("expected seeded content rows")
	}

	if err := repo.UpdateContent(ctx, content[0].ID, "nuevo valor"); err != nil {
		t.Fatalf("update: %v", err)
	}
	after, _ := repo.ListContent(ctx)
	if after[0].Value != "nuevo valor" {
		t.Fatalf("value not updated: %+v", after[0])
	}
	if after[0].Label != content[0].Label {
		t.Fatal("label changed on value update")
	}
}

func TestDeleteFolderSetsItemsNull(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	f, err := repo.AddFolder(ctx, core.GalleryFolder{Name: "Bodas"})
	if err != nil {
		t.Fatalf("add folder: %v", err)
	}
	it, err := repo.AddGalleryItem(ctx, core.GalleryItem{URL: "https://cdn/x.jpg", Type: core.MediaImage, FolderID: f.ID})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	if err := repo.DeleteFolder(ctx, f.ID); err != nil {
		t.Fatalf("delete folder: %v", err)
	}
	got, err := repo.GetGalleryItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.FolderID != "" {
		t.Fatalf("folder id not cleared: %q", got.FolderID)
	}
}

func TestAssetsSectionOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, a := range []core.SiteAsset{
		{URL: "second", Section: core.SectionHero, DisplayOrder: 2},
		{URL: "first", Section: core.SectionHero, DisplayOrder: 1},
		{URL: "other", Section: core.SectionCarousel, DisplayOrder: 1},
	} {
		if _, err := repo.AddAsset(ctx, a); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	hero, err := repo.ListAssets(ctx, core.SectionHero)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(hero) != 2 || hero[0].URL != "first" {
		t.Fatalf("unexpected ordering: %+v", hero)
	}
}
