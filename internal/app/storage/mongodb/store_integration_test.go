//go:build integration && mongo

package mongodb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/R3E-Network/heroapps/internal/app/domain/apps"
)

// Integration test against a live deployment; each run uses its own collection.
func TestStoreIntegration(t *testing.T) {
	_ = godotenv.Load() // allow .env for local runs
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set; skipping mongodb integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	coll := "apps_it_" + primitive.NewObjectID().Hex()
	store, err := Connect(ctx, Config{URI: uri, Database: "heroAppsDB_test", Collection: coll})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() {
		_ = store.coll.Drop(context.Background())
		_ = store.Close(context.Background())
	}()

	seed := []any{
		apps.App{"_id": primitive.NewObjectID(), "title": "ABC Tool", "rating": 4.1, "size": 30, "downloads": 100, "companyName": "Acme"},
		apps.App{"_id": primitive.NewObjectID(), "title": "fabchat", "rating": 4.9, "size": 12, "downloads": "5K"},
		apps.App{"_id": "xyz-1", "title": "xyz", "rating": 3.2, "size": 8, "downloads": 70},
	}
	if _, err := store.coll.InsertMany(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	p := apps.DefaultListParams()
	p.Search = "ABC"
	list, err := store.FindApps(ctx, p.Query())
	if err != nil {
		t.Fatalf("find apps: %v", err)
	}
	if len(list) != 2 || list[0].Title() != "fabchat" || list[1].Title() != "ABC Tool" {
		t.Fatalf("unexpected listing: %+v", list)
	}

	total, err := store.CountApps(ctx, p.Query().Filter)
	if err != nil {
		t.Fatalf("count apps: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}

	if _, ok := list[1]["companyName"]; ok {
		t.Fatalf("listing should be projected: %+v", list[1])
	}
	if _, ok := list[1]["image"]; ok {
		t.Fatalf("missing fields should stay missing: %+v", list[1])
	}

	first := seed[0].(apps.App)
	got, err := store.FindAppByID(ctx, first.IDHex())
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.Title() != "ABC Tool" || got.Value("companyName") != "Acme" {
		t.Fatalf("unexpected record %+v", got)
	}

	all, err := store.FindApps(ctx, apps.DefaultListParams().Query())
	if err != nil || len(all) != 3 {
		t.Fatalf("non-object ids should list: %v %+v", err, all)
	}

	if _, err := store.FindAppByID(ctx, primitive.NewObjectID().Hex()); !errors.Is(err, apps.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
