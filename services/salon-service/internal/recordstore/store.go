// Package recordstore defines the contract of the shared record store the
// salon mirrors and writes to, plus an in-memory implementation.
package recordstore

import (
	"context"
	"errors"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
)

var (
	ErrSlotTaken   = errors.New("slot already taken")
	ErrDuplicateID = errors.New("id already taken")
	ErrNotFound    = errors.New("record not found")
	ErrStaleStatus = errors.New("status changed concurrently")
	ErrUnavailable = errors.New("record store unavailable")
)

type Resource string

const (
	ResourceAppointments Resource = "appointments"
	ResourceServices     Resource = "services"
	ResourceStaff        Resource = "staff"
	ResourceSettings     Resource = "config/siteSettings"
	ResourcePromo        Resource = "config/promo"
)

// Resources lists every watchable resource.
var Resources = []Resource{
	ResourceAppointments,
	ResourceServices,
	ResourceStaff,
	ResourceSettings,
	ResourcePromo,
}

func (r Resource) Valid() bool {
	for _, known := range Resources {
		if r == known {
			return true
		}
	}
	return false
}

// Snapshot is the full current content of one resource. Only the field
// matching Resource is meaningful. A nil Settings or Promo means the document
// does not exist. A non-nil Err marks a protocol-level failure and carries no
// data.
type Snapshot struct {
	Resource     Resource
	Appointments []model.Appointment
	Services     []model.Service
	Staff        []model.Staff
	Settings     *model.SiteSettings
	Promo        *model.Promo
	Err          error
}

type Field string

const (
	FieldID            Field = "id"
	FieldReferenceCode Field = "referenceCode"
	FieldClientPhone   Field = "clientPhone"
)

type Store interface {
	// Watch delivers a full snapshot on subscribe and after every change.
	// The channel is closed once ctx ends.
	Watch(ctx context.Context, resource Resource) (<-chan Snapshot, error)

	// CreateAppointment writes a keyed by its id. It fails with ErrSlotTaken
	// when another non-cancelled appointment holds the same staff, date and
	// time, and with ErrDuplicateID when the id belongs to a different
	// booking. Resubmitting the same booking leaves the stored record as is.
	CreateAppointment(ctx context.Context, a model.Appointment) error
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	FindAppointments(ctx context.Context, field Field, value string) ([]model.Appointment, error)
	// UpdateStatus moves the appointment from -> to only if its stored status
	// is still from.
	UpdateStatus(ctx context.Context, id string, from, to model.Status) (model.Appointment, error)
	SetFeedback(ctx context.Context, id string, rating int, feedback string) error
	DeleteAppointment(ctx context.Context, id string) error

	PutService(ctx context.Context, s model.Service) error
	PutStaff(ctx context.Context, s model.Staff) error
	// DeleteService and DeleteStaff leave appointments that reference the
	// entry untouched; those render as Unknown.
	DeleteService(ctx context.Context, id string) error
	DeleteStaff(ctx context.Context, id string) error
	PutSiteSettings(ctx context.Context, s model.SiteSettings) error
	PutPromo(ctx context.Context, p model.Promo) error

	GetClient(ctx context.Context, phone string) (model.ClientAccount, error)
	// CreateClient fails with ErrDuplicateID when the phone is registered.
	CreateClient(ctx context.Context, c model.ClientAccount) error
}

// Seeder fills an empty catalogue without touching existing entries.
type Seeder interface {
	SeedCatalog(ctx context.Context, services []model.Service, staff []model.Staff) error
}

// ConflictsWith reports whether two distinct appointments would hold the same slot.
func ConflictsWith(a, b model.Appointment) bool {
	return a.ID != b.ID &&
		a.Holds() && b.Holds() &&
		a.StaffID == b.StaffID &&
		a.Date == b.Date &&
		a.Time == b.Time
}
