package recordstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
)

// Memory is a Store kept in process memory. Watchers receive the latest
// snapshot only; intermediate snapshots may be skipped. Snapshots are
// published while holding mu, so watchers never see them out of order.
type Memory struct {
	mu           sync.Mutex
	appointments map[string]model.Appointment
	services     map[string]model.Service
	staff        map[string]model.Staff
	settings     *model.SiteSettings
	promo        *model.Promo
	clients      map[string]model.ClientAccount

	hub *Hub

	queryErr   error
	writeErr   error
	writeFails int
}

func NewMemory() *Memory {
	return &Memory{
		appointments: map[string]model.Appointment{},
		services:     map[string]model.Service{},
		staff:        map[string]model.Staff{},
		clients:      map[string]model.ClientAccount{},
		hub:          NewHub(),
	}
}

// FailQueries makes reads return err wrapped in ErrUnavailable until called with nil.
func (m *Memory) FailQueries(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErr = err
}

// FailWrites makes the next n writes fail with err wrapped in ErrUnavailable.
func (m *Memory) FailWrites(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeFails = n
	m.writeErr = err
}

// Disconnect pushes an error snapshot to every watcher of resource.
func (m *Memory) Disconnect(resource Resource, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hub.Publish(Snapshot{Resource: resource, Err: err})
}

func (m *Memory) Watch(ctx context.Context, resource Resource) (<-chan Snapshot, error) {
	if !resource.Valid() {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshotLocked(resource)
	return m.hub.Add(ctx, resource, &snap), nil
}

func (m *Memory) CreateAppointment(ctx context.Context, a model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}

	if existing, ok := m.appointments[a.ID]; ok {
		if existing.SameBooking(a) {
			return nil
		}
		return ErrDuplicateID
	}
	for _, other := range m.appointments {
		if ConflictsWith(a, other) {
			return ErrSlotTaken
		}
	}
	m.appointments[a.ID] = a
	m.publishLocked(ResourceAppointments)
	return nil
}

func (m *Memory) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.queryCheckLocked(ctx); err != nil {
		return model.Appointment{}, err
	}
	a, ok := m.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) FindAppointments(ctx context.Context, field Field, value string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.queryCheckLocked(ctx); err != nil {
		return nil, err
	}

	var out []model.Appointment
	for _, a := range m.appointments {
		var v string
		switch field {
		case FieldID:
			v = a.ID
		case FieldReferenceCode:
			v = a.ReferenceCode
		case FieldClientPhone:
			v = a.ClientPhone
		default:
			return nil, fmt.Errorf("unsupported field %q", field)
		}
		if v != "" && v == value {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateStatus(ctx context.Context, id string, from, to model.Status) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return model.Appointment{}, err
	}

	a, ok := m.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	if a.Status != from {
		return model.Appointment{}, ErrStaleStatus
	}
	a.Status = to
	for _, other := range m.appointments {
		if ConflictsWith(a, other) {
			return model.Appointment{}, ErrSlotTaken
		}
	}
	m.appointments[id] = a
	m.publishLocked(ResourceAppointments)
	return a, nil
}

func (m *Memory) SetFeedback(ctx context.Context, id string, rating int, feedback string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}
	a, ok := m.appointments[id]
	if !ok {
		return ErrNotFound
	}
	a.Rating = rating
	a.Feedback = feedback
	m.appointments[id] = a
	m.publishLocked(ResourceAppointments)
	return nil
}

func (m *Memory) DeleteAppointment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}
	if _, ok := m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, id)
	m.publishLocked(ResourceAppointments)
	return nil
}

func (m *Memory) PutService(ctx context.Context, s model.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}
	m.services[s.ID] = s
	m.publishLocked(ResourceServices)
	return nil
}

func (m *Memory) PutStaff(ctx context.Context, s model.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}
	m.staff[s.ID] = s
	m.publishLocked(ResourceStaff)
	return nil
}

func (m *Memory) DeleteService(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}
	if _, ok := m.services[id]; !ok {
		return ErrNotFound
	}
	delete(m.services, id)
	m.publishLocked(ResourceServices)
	return nil
}

func (m *Memory) DeleteStaff(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}
	if _, ok := m.staff[id]; !ok {
		return ErrNotFound
	}
	delete(m.staff, id)
	m.publishLocked(ResourceStaff)
	return nil
}

func (m *Memory) PutSiteSettings(ctx context.Context, s model.SiteSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}
	m.settings = &s
	m.publishLocked(ResourceSettings)
	return nil
}

func (m *Memory) PutPromo(ctx context.Context, p model.Promo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}
	m.promo = clonePromo(&p)
	m.publishLocked(ResourcePromo)
	return nil
}

func (m *Memory) GetClient(ctx context.Context, phone string) (model.ClientAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.queryCheckLocked(ctx); err != nil {
		return model.ClientAccount{}, err
	}
	c, ok := m.clients[phone]
	if !ok {
		return model.ClientAccount{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) CreateClient(ctx context.Context, c model.ClientAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheckLocked(ctx); err != nil {
		return err
	}
	if _, ok := m.clients[c.Phone]; ok {
		return ErrDuplicateID
	}
	m.clients[c.Phone] = c
	return nil
}

func (m *Memory) SeedCatalog(ctx context.Context, services []model.Service, staff []model.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(m.services) == 0 && len(services) > 0 {
		for _, s := range services {
			m.services[s.ID] = s
		}
		m.publishLocked(ResourceServices)
	}
	if len(m.staff) == 0 && len(staff) > 0 {
		for _, s := range staff {
			m.staff[s.ID] = s
		}
		m.publishLocked(ResourceStaff)
	}
	return nil
}

func (m *Memory) queryCheckLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.queryErr != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, m.queryErr)
	}
	return nil
}

func (m *Memory) writeCheckLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.writeFails > 0 {
		m.writeFails--
		return fmt.Errorf("%w: %v", ErrUnavailable, m.writeErr)
	}
	return nil
}

func (m *Memory) publishLocked(resource Resource) {
	m.hub.Publish(m.snapshotLocked(resource))
}

func (m *Memory) snapshotLocked(resource Resource) Snapshot {
	snap := Snapshot{Resource: resource}
	switch resource {
	case ResourceAppointments:
		snap.Appointments = make([]model.Appointment, 0, len(m.appointments))
		for _, a := range m.appointments {
			snap.Appointments = append(snap.Appointments, a)
		}
		sort.Slice(snap.Appointments, func(i, j int) bool { return snap.Appointments[i].ID < snap.Appointments[j].ID })
	case ResourceServices:
		snap.Services = make([]model.Service, 0, len(m.services))
		for _, s := range m.services {
			snap.Services = append(snap.Services, s)
		}
		sort.Slice(snap.Services, func(i, j int) bool { return naturalLess(snap.Services[i].ID, snap.Services[j].ID) })
	case ResourceStaff:
		snap.Staff = make([]model.Staff, 0, len(m.staff))
		for _, s := range m.staff {
			snap.Staff = append(snap.Staff, s)
		}
		sort.Slice(snap.Staff, func(i, j int) bool { return naturalLess(snap.Staff[i].ID, snap.Staff[j].ID) })
	case ResourceSettings:
		if m.settings != nil {
			s := *m.settings
			snap.Settings = &s
		}
	case ResourcePromo:
		snap.Promo = clonePromo(m.promo)
	}
	return snap
}

func clonePromo(p *model.Promo) *model.Promo {
	if p == nil {
		return nil
	}
	out := model.Promo{}
	if p.Message != nil {
		msg := *p.Message
		out.Message = &msg
	}
	return &out
}

// naturalLess orders ids like s2 before s10.
func naturalLess(a, b string) bool {
	pa := strings.TrimRight(a, "0123456789")
	pb := strings.TrimRight(b, "0123456789")
	if pa != pb || len(a) == len(b) {
		return a < b
	}
	return len(a) < len(b)
}
