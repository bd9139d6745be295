package apps

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/R3E-Network/heroapps/internal/app/domain/apps"
	"github.com/R3E-Network/heroapps/internal/app/metrics"
	"github.com/R3E-Network/heroapps/internal/app/storage"
	"github.com/R3E-Network/heroapps/pkg/logger"
)

// Service answers listing and lookup requests against the apps collection.
type Service struct {
	store    storage.AppStore
	log      *logger.Logger
	maxLimit int64
}

// Option configures a Service.
type Option func(*Service)

// WithMaxLimit caps the page size of listings. Zero leaves it unbounded.
func WithMaxLimit(limit int64) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// New constructs an apps service.
func New(store storage.AppStore, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewDefault("apps")
	}
	s := &Service{store: store, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List runs the listing described by p and returns the page together with the
// number of records matching the search, independent of skip and limit.
func (s *Service) List(ctx context.Context, p domain.ListParams) (domain.ListResult, error) {
	if s.maxLimit > 0 && p.Limit > s.maxLimit {
		p.Limit = s.maxLimit
	}
	q := p.Query()

	var records []domain.App
	err := s.observe("find", func() (err error) {
		records, err = s.store.FindApps(ctx, q)
		return err
	})
	if err != nil {
		return domain.ListResult{}, s.storageError(ctx, "find apps", err)
	}

	var total int64
	err = s.observe("count", func() (err error) {
		total, err = s.store.CountApps(ctx, q.Filter)
		return err
	})
	if err != nil {
		return domain.ListResult{}, s.storageError(ctx, "count apps", err)
	}

	if records == nil {
		records = []domain.App{}
	}
	return domain.ListResult{Apps: records, TotalApps: total}, nil
}

// Get returns the record with the given identifier. Identifiers of the wrong
// length fail with ErrInvalidID without touching the store; a missing record
// fails with ErrNotFound. The record is the whole stored document.
func (s *Service) Get(ctx context.Context, id string) (domain.App, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	var rec domain.App
	err := s.observe("find_one", func() (err error) {
		rec, err = s.store.FindAppByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, s.storageError(ctx, "find app "+id, err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (s *Service) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStorageOperation(op, time.Since(start), err)
	return err
}

func (s *Service) storageError(ctx context.Context, what string, err error) error {
	s.log.WithContext(ctx).WithError(err).Errorf("%s failed", what)
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, what, err)
}
