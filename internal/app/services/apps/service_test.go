package apps

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	domain "github.com/R3E-Network/heroapps/internal/app/domain/apps"
	"github.com/R3E-Network/heroapps/pkg/logger"
	"github.com/R3E-Network/heroapps/pkg/testutil"
)

func newStore() *testutil.MockAppStore {
	return testutil.NewMockAppStore(
		domain.App{"title": "ABC Tool", "rating": 4.1, "size": 30, "downloads": 100},
		domain.App{"title": "fabchat", "rating": 4.9, "size": 12, "downloads": 5000},
		domain.App{"title": "xyz", "rating": 3.2, "size": 20, "downloads": 70},
		domain.App{"title": "Notes", "rating": 4.5, "size": 8, "downloads": 900},
		domain.App{"title": "Maps", "rating": 2.0, "size": 55, "downloads": 3},
	)
}

func TestListTotalIndependentOfWindow(t *testing.T) {
	svc := New(newStore(), logger.Discard())
	ctx := context.Background()

	for _, window := range []struct{ limit, skip int64 }{{1, 0}, {2, 1}, {10, 0}, {3, 4}, {5, 50}} {
		p := domain.DefaultListParams()
		p.Limit, p.Skip = window.limit, window.skip

		res, err := svc.List(ctx, p)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if int64(len(res.Apps)) > window.limit {
			t.Fatalf("limit %d returned %d records", window.limit, len(res.Apps))
		}
		if res.TotalApps != 5 {
			t.Fatalf("total = %d, want 5 (limit %d skip %d)", res.TotalApps, window.limit, window.skip)
		}
		if res.Apps == nil {
			t.Fatal("apps must be an empty slice, not nil")
		}
	}
}

func TestListSearch(t *testing.T) {
	svc := New(newStore(), logger.Discard())

	p := domain.DefaultListParams()
	p.Search = "abc"
	res, err := svc.List(context.Background(), p)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalApps != 2 || len(res.Apps) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, a := range res.Apps {
		if a.Title() != "ABC Tool" && a.Title() != "fabchat" {
			t.Fatalf("unexpected match %q", a.Title())
		}
	}
}

func TestListOrder(t *testing.T) {
	svc := New(newStore(), logger.Discard())
	ctx := context.Background()

	p := domain.DefaultListParams()
	desc, err := svc.List(ctx, p)
	if err != nil {
		t.Fatalf("list desc: %v", err)
	}
	for i := 1; i < len(desc.Apps); i++ {
		if rating(desc.Apps[i-1]) < rating(desc.Apps[i]) {
			t.Fatalf("descending order broken at %d: %+v", i, desc.Apps)
		}
	}

	p.SortOrder = domain.Ascending
	asc, err := svc.List(ctx, p)
	if err != nil {
		t.Fatalf("list asc: %v", err)
	}
	for i := 1; i < len(asc.Apps); i++ {
		if rating(asc.Apps[i-1]) > rating(asc.Apps[i]) {
			t.Fatalf("ascending order broken at %d: %+v", i, asc.Apps)
		}
	}
}

func rating(a domain.App) float64 {
	f, _ := a.Value(domain.FieldRating).(float64)
	return f
}

func TestListMaxLimit(t *testing.T) {
	store := newStore()
	svc := New(store, logger.Discard(), WithMaxLimit(2))

	p := domain.DefaultListParams()
	p.Limit = 1000
	res, err := svc.List(context.Background(), p)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Apps) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(res.Apps))
	}
	if got := store.LastFind().Limit; got != 2 {
		t.Fatalf("store saw limit %d", got)
	}

	unbounded := New(store, logger.Discard())
	if _, err := unbounded.List(context.Background(), p); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := store.LastFind().Limit; got != 1000 {
		t.Fatalf("limit should pass through uncapped, got %d", got)
	}
}

func TestListStorageFailure(t *testing.T) {
	boom := errors.New("connection reset")

	store := newStore()
	store.FindErr = boom
	_, err := New(store, logger.Discard()).List(context.Background(), domain.DefaultListParams())
	if !errors.Is(err, domain.ErrStorage) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}

	store = newStore()
	store.CountErr = boom
	_, err = New(store, logger.Discard()).List(context.Background(), domain.DefaultListParams())
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error from count, got %v", err)
	}
	if store.Calls("find") != 1 || store.Calls("count") != 1 {
		t.Fatalf("no retries expected: find=%d count=%d", store.Calls("find"), store.Calls("count"))
	}
}

func TestGet(t *testing.T) {
	store := newStore()
	rec := store.Insert(domain.App{"title": "Target", "companyName": "Acme"})
	svc := New(store, logger.Discard())
	ctx := context.Background()

	got, err := svc.Get(ctx, rec.IDHex())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title() != "Target" || got.Value("companyName") != "Acme" {
		t.Fatalf("unexpected record %+v", got)
	}

	if _, err := svc.Get(ctx, primitive.NewObjectID().Hex()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetInvalidIDSkipsStore(t *testing.T) {
	store := newStore()
	svc := New(store, logger.Discard())

	_, err := svc.Get(context.Background(), "0123456789abcdef0123456")
	if !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if store.TotalCalls() != 0 {
		t.Fatalf("store should not be called, saw %d calls", store.TotalCalls())
	}
}

func TestGetStorageFailure(t *testing.T) {
	store := newStore()
	svc := New(store, logger.Discard())

	// 24 characters but not hex: the store rejects it.
	_, err := svc.Get(context.Background(), "zzzzzzzzzzzzzzzzzzzzzzzz")
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	store.GetErr = errors.New("timeout")
	_, err = svc.Get(context.Background(), primitive.NewObjectID().Hex())
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
