// Package storage is the PostgreSQL record store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/glamflow/libs/db"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/outbox"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

const (
	notifyChannel = "record_changes"
	slotIndex     = "appointments_slot_key"
	loadTimeout   = 5 * time.Second
)

type Store struct {
	pool   *db.Pool
	outbox *outbox.Repository
	logger *slog.Logger
	hub    *recordstore.Hub

	// settingsBase fills keys a stored settings document omits.
	settingsBase model.SiteSettings

	// refreshMu keeps publishes in load order.
	refreshMu sync.Mutex
}

var (
	_ recordstore.Store  = (*Store)(nil)
	_ recordstore.Seeder = (*Store)(nil)
)

func New(pool *db.Pool, outboxRepo *outbox.Repository, logger *slog.Logger, settingsBase model.SiteSettings) *Store {
	return &Store{
		pool:         pool,
		outbox:       outboxRepo,
		logger:       logger,
		hub:          recordstore.NewHub(),
		settingsBase: settingsBase,
	}
}

func (s *Store) Watch(ctx context.Context, resource recordstore.Resource) (<-chan recordstore.Snapshot, error) {
	if !resource.Valid() {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	ch := s.hub.Add(ctx, resource, nil)
	s.refresh(ctx, resource)
	return ch, nil
}

// refresh reloads resource and publishes it to every watcher.
func (s *Store) refresh(ctx context.Context, resource recordstore.Resource) {
	if s.hub.Watching(resource) == 0 {
		return
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	snap, err := s.load(loadCtx, resource)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("snapshot load failed", "resource", resource, "err", err)
		snap = recordstore.Snapshot{Resource: resource, Err: classify(err)}
	}
	s.hub.Publish(snap)
}

func (s *Store) load(ctx context.Context, resource recordstore.Resource) (recordstore.Snapshot, error) {
	snap := recordstore.Snapshot{Resource: resource}
	var err error
	switch resource {
	case recordstore.ResourceAppointments:
		snap.Appointments, err = s.listAppointments(ctx)
		if snap.Appointments == nil {
			snap.Appointments = []model.Appointment{}
		}
	case recordstore.ResourceServices:
		snap.Services, err = s.listServices(ctx)
	case recordstore.ResourceStaff:
		snap.Staff, err = s.listStaff(ctx)
	case recordstore.ResourceSettings:
		snap.Settings, err = s.loadSettings(ctx)
	case recordstore.ResourcePromo:
		snap.Promo, err = s.loadPromo(ctx)
	}
	return snap, err
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return classify(err)
	}
	return classify(tx.Commit(ctx))
}

// IsSlotConflict reports a violation of the one-live-booking-per-slot index.
func IsSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == slotIndex
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// classify maps driver errors onto recordstore sentinels. Errors that are
// neither SQL errors nor cancellations are treated as connectivity loss.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, recordstore.ErrSlotTaken),
		errors.Is(err, recordstore.ErrDuplicateID),
		errors.Is(err, recordstore.ErrNotFound),
		errors.Is(err, recordstore.ErrStaleStatus),
		errors.Is(err, recordstore.ErrUnavailable):
		return err
	case IsNotFound(err):
		return recordstore.ErrNotFound
	case IsSlotConflict(err):
		return recordstore.ErrSlotTaken
	case IsUniqueViolation(err):
		return recordstore.ErrDuplicateID
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	return fmt.Errorf("%w: %v", recordstore.ErrUnavailable, err)
}
