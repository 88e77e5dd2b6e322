// Package mirror keeps a local copy of the record store's watched resources.
//
// Every push is a full snapshot that replaces the previous copy. Pushes are
// consumed by the single goroutine running Run; readers get copies.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/site"
)

// UnknownName is shown for references that do not resolve.
const UnknownName = "Unknown"

var ErrDisconnected = errors.New("record store feed disconnected")

type Outcome string

const (
	Applied  Outcome = "applied"
	Rejected Outcome = "rejected"
	Ignored  Outcome = "ignored"
	Failed   Outcome = "failed"
)

// Change tells subscribers that the mirror moved. Notifications are coalesced:
// a slow subscriber may miss some, and should re-read the accessors.
type Change struct {
	Resource  recordstore.Resource
	Connected bool
}

// Observer is told about every push handled by Apply.
type Observer func(resource recordstore.Resource, outcome Outcome)

type Watcher interface {
	Watch(ctx context.Context, resource recordstore.Resource) (<-chan recordstore.Snapshot, error)
}

type Mirror struct {
	logger   *slog.Logger
	observer Observer

	mu           sync.RWMutex
	appointments []model.Appointment
	services     []model.Service
	staff        []model.Staff
	settings     model.SiteSettings
	promo        model.Promo
	failing      map[recordstore.Resource]bool

	subsMu sync.Mutex
	subs   map[chan Change]struct{}
}

// New returns a mirror seeded with the built-in catalogue, settings and promo.
func New(defaults site.Defaults, logger *slog.Logger, observer Observer) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		logger:   logger,
		observer: observer,
		services: append([]model.Service(nil), defaults.Services...),
		staff:    append([]model.Staff(nil), defaults.Staff...),
		settings: defaults.Settings,
		promo:    copyPromo(defaults.PromoDoc()),
		failing:  map[recordstore.Resource]bool{},
		subs:     map[chan Change]struct{}{},
	}
}

// Run holds one subscription per resource until ctx ends or every
// subscription has closed. A subscription that cannot be opened or that
// closes early marks the mirror disconnected without affecting the others.
func (m *Mirror) Run(ctx context.Context, store Watcher) error {
	var (
		apptCh     = m.open(ctx, store, recordstore.ResourceAppointments)
		servicesCh = m.open(ctx, store, recordstore.ResourceServices)
		staffCh    = m.open(ctx, store, recordstore.ResourceStaff)
		settingsCh = m.open(ctx, store, recordstore.ResourceSettings)
		promoCh    = m.open(ctx, store, recordstore.ResourcePromo)
	)

	for apptCh != nil || servicesCh != nil || staffCh != nil || settingsCh != nil || promoCh != nil {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-apptCh:
			apptCh = m.receive(ctx, recordstore.ResourceAppointments, apptCh, snap, ok)
		case snap, ok := <-servicesCh:
			servicesCh = m.receive(ctx, recordstore.ResourceServices, servicesCh, snap, ok)
		case snap, ok := <-staffCh:
			staffCh = m.receive(ctx, recordstore.ResourceStaff, staffCh, snap, ok)
		case snap, ok := <-settingsCh:
			settingsCh = m.receive(ctx, recordstore.ResourceSettings, settingsCh, snap, ok)
		case snap, ok := <-promoCh:
			promoCh = m.receive(ctx, recordstore.ResourcePromo, promoCh, snap, ok)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return ErrDisconnected
}

func (m *Mirror) open(ctx context.Context, store Watcher, resource recordstore.Resource) <-chan recordstore.Snapshot {
	ch, err := store.Watch(ctx, resource)
	if err != nil {
		m.logger.Error("watch failed", "resource", resource, "err", err)
		m.Apply(recordstore.Snapshot{Resource: resource, Err: err})
		return nil
	}
	return ch
}

func (m *Mirror) receive(ctx context.Context, resource recordstore.Resource, ch <-chan recordstore.Snapshot, snap recordstore.Snapshot, ok bool) <-chan recordstore.Snapshot {
	if !ok {
		if ctx.Err() == nil {
			m.logger.Warn("watch closed", "resource", resource)
			m.Apply(recordstore.Snapshot{Resource: resource, Err: fmt.Errorf("%s: %w", resource, ErrDisconnected)})
		}
		return nil
	}
	// A push that races with teardown is dropped.
	if ctx.Err() != nil {
		return ch
	}
	snap.Resource = resource
	m.Apply(snap)
	return ch
}

// Apply folds one snapshot into the mirror.
func (m *Mirror) Apply(snap recordstore.Snapshot) Outcome {
	m.mu.Lock()
	outcome := m.applyLocked(snap)
	connected := len(m.failing) == 0
	m.mu.Unlock()

	switch outcome {
	case Failed:
		m.logger.Warn("push failed; keeping last known state", "resource", snap.Resource, "err", snap.Err)
	case Rejected:
		m.logger.Warn("empty snapshot rejected", "resource", snap.Resource)
	}
	if m.observer != nil {
		m.observer(snap.Resource, outcome)
	}
	if outcome == Applied || outcome == Failed {
		m.notify(Change{Resource: snap.Resource, Connected: connected})
	}
	return outcome
}

func (m *Mirror) applyLocked(snap recordstore.Snapshot) Outcome {
	if snap.Err != nil {
		m.failing[snap.Resource] = true
		return Failed
	}
	delete(m.failing, snap.Resource)

	switch snap.Resource {
	case recordstore.ResourceAppointments:
		m.appointments = append([]model.Appointment{}, snap.Appointments...)
		return Applied
	case recordstore.ResourceServices:
		if len(snap.Services) == 0 {
			return Rejected
		}
		m.services = append([]model.Service(nil), snap.Services...)
		return Applied
	case recordstore.ResourceStaff:
		if len(snap.Staff) == 0 {
			return Rejected
		}
		m.staff = append([]model.Staff(nil), snap.Staff...)
		return Applied
	case recordstore.ResourceSettings:
		if snap.Settings == nil {
			return Ignored
		}
		m.settings = *snap.Settings
		return Applied
	case recordstore.ResourcePromo:
		if snap.Promo == nil {
			return Ignored
		}
		m.promo = copyPromo(*snap.Promo)
		return Applied
	default:
		return Ignored
	}
}

// Subscribe returns a channel of change notifications and a func that
// releases it.
func (m *Mirror) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 1)
	m.subsMu.Lock()
	m.subs[ch] = struct{}{}
	m.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, ch)
			m.subsMu.Unlock()
		})
	}
}

func (m *Mirror) notify(c Change) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (m *Mirror) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.failing) == 0
}

// Disconnected lists the watched resources whose latest push failed, in
// watch order.
func (m *Mirror) Disconnected() []recordstore.Resource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []recordstore.Resource
	for _, r := range recordstore.Resources {
		if m.failing[r] {
			out = append(out, r)
		}
	}
	return out
}

// ReadyCheck fails while any watched resource is disconnected and names them.
func (m *Mirror) ReadyCheck(context.Context) error {
	down := m.Disconnected()
	if len(down) == 0 {
		return nil
	}
	names := make([]string, len(down))
	for i, r := range down {
		names[i] = string(r)
	}
	return fmt.Errorf("%w: %s", ErrDisconnected, strings.Join(names, ", "))
}

func (m *Mirror) Appointments() []model.Appointment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Appointment(nil), m.appointments...)
}

func (m *Mirror) Services() []model.Service {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Service(nil), m.services...)
}

func (m *Mirror) Staff() []model.Staff {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Staff(nil), m.staff...)
}

func (m *Mirror) Settings() model.SiteSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

func (m *Mirror) Promo() model.Promo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyPromo(m.promo)
}

func (m *Mirror) ServiceByID(id string) (model.Service, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.services {
		if s.ID == id {
			return s, true
		}
	}
	return model.Service{}, false
}

func (m *Mirror) StaffByID(id string) (model.Staff, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.staff {
		if s.ID == id {
			return s, true
		}
	}
	return model.Staff{}, false
}

func (m *Mirror) ServiceName(id string) string {
	if s, ok := m.ServiceByID(id); ok {
		return s.Name
	}
	return UnknownName
}

func (m *Mirror) StaffName(id string) string {
	if s, ok := m.StaffByID(id); ok {
		return s.Name
	}
	return UnknownName
}

func copyPromo(p model.Promo) model.Promo {
	if p.Message == nil {
		return model.Promo{}
	}
	msg := *p.Message
	return model.Promo{Message: &msg}
}
