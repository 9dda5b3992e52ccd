package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"networth/internal/core"
	"networth/internal/session"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "networth.db")
	repo, err := NewSQLiteRepository(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestGetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Get() error = %v, want session.ErrNotFound", err)
	}
}

func TestPutUpsert(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return first }

	if err := repo.Put(ctx, "k", []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	repo.now = func() time.Time { return first.Add(time.Hour) }
	if err := repo.Put(ctx, "k", []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("Get() = %s", got)
	}
	at, err := repo.UpdatedAt(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !at.Equal(first.Add(time.Hour)) {
		t.Errorf("UpdatedAt() = %v", at)
	}

	keys, err := repo.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "k" {
		t.Errorf("Keys() = %v, %v", keys, err)
	}
}

func TestPutEmptyKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	if err := repo.Put(context.Background(), "", []byte("{}")); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestKeysAndDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	for _, k := range []string{"b", "a", "c"} {
		if err := repo.Put(ctx, k, []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}

	keys, _ := repo.Keys(ctx)
	if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
		t.Errorf("Keys() = %v, want sorted", keys)
	}

	if err := repo.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "b"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
	keys, _ = repo.Keys(ctx)
	if len(keys) != 2 {
		t.Errorf("Keys() after delete = %v", keys)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	_, path := newTestRepo(t)
	if err := RunMigrations(path); err != nil {
		t.Errorf("second RunMigrations() error = %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Put(ctx, "k", []byte("payload")); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	again, err := NewSQLiteRepository(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	got, err := again.Get(ctx, "k")
	if err != nil || string(got) != "payload" {
		t.Errorf("Get() after reopen = %q, %v", got, err)
	}
}

func TestSessionStoreOverSQLite(t *testing.T) {
	repo, _ := newTestRepo(t)

	s := session.New(repo)
	s.UpdateAssets(core.Patch{"savings": 1500, "checking": 500})
	s.UpdateLiabilities(core.Patch{"creditCard1": 400})
	if _, err := s.UpdateCurrency(core.EUR); err != nil {
		t.Fatal(err)
	}
	if !s.Save() {
		t.Fatal("Save() = false")
	}

	restored := session.New(repo)
	if !restored.Load() {
		t.Fatal("Load() = false")
	}
	st := restored.State()
	if st.Calculations.NetWorth != 1600 || st.Calculations.DebtToAssetRatio != 20 {
		t.Errorf("restored calculations = %+v", st.Calculations)
	}
	if st.Currency != core.EUR {
		t.Errorf("currency = %s", st.Currency)
	}
	s.Close()
	restored.Close()
}
