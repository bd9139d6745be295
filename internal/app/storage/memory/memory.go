package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/R3E-Network/heroapps/internal/app/domain/apps"
	"github.com/R3E-Network/heroapps/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
// Records keep insertion order, which is the natural order of a listing when
// sort keys are equal.
type Store struct {
	mu   sync.RWMutex
	apps []apps.App
	byID map[any]int
}

var _ storage.Store = (*Store)(nil)

// New creates a store holding the given records. Records without an
// identifier get a fresh one.
func New(records ...apps.App) *Store {
	s := &Store{byID: make(map[any]int)}
	for _, rec := range records {
		s.Insert(rec)
	}
	return s
}

// LoadFile creates a store from a JSON array of app documents. An "_id" that
// is the hex form of an object id is stored as an object id; any other
// identifier is kept as written.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []apps.App
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for _, rec := range records {
		if hex, ok := rec[apps.FieldID].(string); ok {
			if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
				rec[apps.FieldID] = oid
			}
		}
	}
	return New(records...), nil
}

// Insert adds a copy of rec and returns it with its identifier set. A record
// with the identifier of a stored one replaces it.
func (s *Store) Insert(rec apps.App) apps.App {
	rec = rec.Clone()
	if rec == nil {
		rec = apps.App{}
	}
	if rec.ID() == nil {
		rec[apps.FieldID] = primitive.NewObjectID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := idKey(rec.ID())
	if idx, ok := s.byID[key]; ok {
		s.apps[idx] = rec
		return rec.Clone()
	}
	s.byID[key] = len(s.apps)
	s.apps = append(s.apps, rec)
	return rec.Clone()
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apps)
}

// AppStore implementation -----------------------------------------------------

func (s *Store) FindApps(ctx context.Context, q apps.ListQuery) ([]apps.App, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]apps.App, 0, len(s.apps))
	for _, rec := range s.apps {
		if q.Filter.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	if q.Sort.Field != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c := compareValues(matched[i].Value(q.Sort.Field), matched[j].Value(q.Sort.Field))
			if q.Sort.Order == apps.Descending {
				return c > 0
			}
			return c < 0
		})
	}

	start := q.Skip
	if start > int64(len(matched)) {
		start = int64(len(matched))
	}
	end := int64(len(matched))
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	out := make([]apps.App, 0, end-start)
	for _, rec := range matched[start:end] {
		if q.Fields != nil {
			rec = rec.Project(q.Fields)
		} else {
			rec = rec.Clone()
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) CountApps(ctx context.Context, f apps.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, rec := range s.apps {
		if f.Matches(rec) {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindAppByID(ctx context.Context, id string) (apps.App, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("parse object id %q: %w", id, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[idKey(oid)]
	if !ok {
		return nil, apps.ErrNotFound
	}
	return s.apps[idx].Clone(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(context.Context) error {
	return nil
}

// idKey maps an identifier to a map key. Identifiers that cannot be map keys
// are keyed by their printed form.
func idKey(id any) any {
	if id == nil || reflect.TypeOf(id).Comparable() {
		return id
	}
	return fmt.Sprintf("%T:%v", id, id)
}

// compareValues orders values the way the document store does for the types
// an app record holds: missing values first, then numbers, then strings.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case rankNumber:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

const (
	rankNull = iota
	rankNumber
	rankString
	rankOther
)

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case int, int32, int64, float32, float64:
		return rankNumber
	case string:
		return rankString
	default:
		return rankOther
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
