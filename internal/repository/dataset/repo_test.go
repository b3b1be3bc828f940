package dataset

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/db"
	"github.com/kailas-cloud/crawlscope/internal/domain"
	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
)

func testDataset(t *testing.T) domds.Dataset {
	t.Helper()
	ds, err := domds.New("ebola", "Ebola 2015", time.Unix(1432310403, 0).UTC())
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	return ds
}

// --- Register ---

func TestRegister_New(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != "t:registry:ebola" {
			t.Errorf("key = %q", key)
		}
		if fields["name"] != "Ebola 2015" || fields["created"] != "1432310403" {
			t.Errorf("fields = %v", fields)
		}
		return nil
	}
	var indexes []string
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		indexes = append(indexes, def.Name)
		return nil
	}

	created, err := repo.Register(context.Background(), testDataset(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	want := []string{"t:ds:ebola:page:idx", "t:ds:ebola:term:idx"}
	if !slices.Equal(indexes, want) {
		t.Errorf("indexes = %v, want %v", indexes, want)
	}
}

func TestRegister_ExistingIndexesTolerated(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(context.Context, string) (bool, error) { return true, nil }
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists }

	created, err := repo.Register(context.Background(), testDataset(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false for re-registration")
	}
}

func TestRegister_IndexFailureRollsBack(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return errors.New("boom") }
	deleted := ""
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}

	if _, err := repo.Register(context.Background(), testDataset(t)); err == nil {
		t.Fatal("expected error")
	}
	if deleted != "t:registry:ebola" {
		t.Errorf("rollback deleted %q", deleted)
	}
}

// --- Get / List ---

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_Found(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(context.Context, string) (map[string]string, error) {
		return map[string]string{"id": "ebola", "name": "Ebola", "created": "1432310403.5"}, nil
	}
	ds, err := repo.Get(context.Background(), "ebola")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.ID() != "ebola" || ds.Name() != "Ebola" {
		t.Errorf("got %+v", ds)
	}
	if want := time.Unix(1432310403, 500_000_000); !ds.CreatedAt().Equal(want) {
		t.Errorf("createdAt = %v, want %v", ds.CreatedAt(), want)
	}
}

func TestList_SortedOldestFirst(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "t:registry:*" {
			t.Errorf("pattern = %q", pattern)
		}
		return []string{"a", "b", "c"}, nil
	}
	ms.hgetAllMultiFn = func(context.Context, []string) ([]map[string]string, error) {
		return []map[string]string{
			{"id": "zika", "name": "Zika", "created": "200"},
			{},
			{"id": "ebola", "name": "Ebola", "created": "100"},
		}, nil
	}

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID() != "ebola" || got[1].ID() != "zika" {
		t.Errorf("got %+v", got)
	}
}

func TestList_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	got, err := repo.List(context.Background())
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestGet_StoreFailure(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(context.Context, string) (map[string]string, error) {
		return nil, errors.New("connection refused")
	}
	_, err := repo.Get(context.Background(), "ebola")
	if !errors.Is(err, domain.ErrGatewayFailure) {
		t.Fatalf("expected ErrGatewayFailure, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("store failure reported as not found")
	}
}

func TestList_StoreFailure(t *testing.T) {
	t.Run("scan", func(t *testing.T) {
		repo, ms := newTestRepo(t)
		ms.scanFn = func(context.Context, string) ([]string, error) {
			return nil, errors.New("connection refused")
		}
		if _, err := repo.List(context.Background()); !errors.Is(err, domain.ErrGatewayFailure) {
			t.Fatalf("expected ErrGatewayFailure, got %v", err)
		}
	})
	t.Run("hgetall", func(t *testing.T) {
		repo, ms := newTestRepo(t)
		ms.scanFn = func(context.Context, string) ([]string, error) {
			return []string{"t:registry:ebola"}, nil
		}
		ms.hgetAllMultiFn = func(context.Context, []string) ([]map[string]string, error) {
			return nil, errors.New("connection refused")
		}
		if _, err := repo.List(context.Background()); !errors.Is(err, domain.ErrGatewayFailure) {
			t.Fatalf("expected ErrGatewayFailure, got %v", err)
		}
	})
}

// --- Delete ---

func TestDelete(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(context.Context, string) (bool, error) { return true, nil }
	var dropped []string
	ms.dropIndexFn = func(_ context.Context, name string) error {
		dropped = append(dropped, name)
		return db.ErrIndexNotFound
	}
	if err := repo.Delete(context.Background(), "ebola"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	if err := repo.Delete(context.Background(), "ebola"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
