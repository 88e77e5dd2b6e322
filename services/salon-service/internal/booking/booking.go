// Package booking owns the appointment lifecycle: client bookings, admin
// blocks, validated status changes, deletes and post-visit feedback.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/availability"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/bookingid"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

var (
	ErrValidation      = errors.New("invalid booking request")
	ErrBookingClosed   = errors.New("booking is currently closed")
	ErrSlotUnavailable = errors.New("slot is not available")
	ErrNotOwner        = errors.New("appointment belongs to another client")
)

const (
	WalkInName      = "Walk-in"
	BlockedSlotName = "Blocked slot"
)

// maxIDAttempts bounds regeneration after generated-id collisions.
const maxIDAttempts = 5

// WindowDays is how many calendar days, starting today, clients may book.
const WindowDays = 30

// Catalog is the local view bookings are validated against.
type Catalog interface {
	Appointments() []model.Appointment
	ServiceByID(id string) (model.Service, bool)
	StaffByID(id string) (model.Staff, bool)
	Settings() model.SiteSettings
}

type Config struct {
	WriteTimeout   time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	Location       *time.Location
	Now            func() time.Time
}

type Service struct {
	store   recordstore.Store
	catalog Catalog
	logger  *slog.Logger
	cfg     Config
	newID   func(prefix string) (string, error)
}

func NewService(store recordstore.Store, catalog Catalog, logger *slog.Logger, cfg Config) *Service {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		catalog: catalog,
		logger:  logger,
		cfg:     cfg,
		newID:   bookingid.New,
	}
}

type Request struct {
	ClientName    string
	ClientPhone   string
	ClientEmail   string
	ServiceID     string
	StaffID       string
	Date          string
	Time          string
	PaymentMethod string
	ReferenceCode string
	PaymentProof  string
}

// Create books a slot for a client. The appointment starts PENDING and
// snapshots the service price.
func (s *Service) Create(ctx context.Context, req Request) (model.Appointment, error) {
	if !s.catalog.Settings().AcceptsBookings() {
		return model.Appointment{}, ErrBookingClosed
	}

	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return model.Appointment{}, fmt.Errorf("%w: client name is required", ErrValidation)
	}
	svc, ok := s.catalog.ServiceByID(strings.TrimSpace(req.ServiceID))
	if !ok {
		return model.Appointment{}, fmt.Errorf("%w: unknown service", ErrValidation)
	}
	staff, ok := s.catalog.StaffByID(strings.TrimSpace(req.StaffID))
	if !ok {
		return model.Appointment{}, fmt.Errorf("%w: unknown staff", ErrValidation)
	}
	method, ok := model.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return model.Appointment{}, fmt.Errorf("%w: unsupported payment method", ErrValidation)
	}
	date, slot, err := s.checkSlot(staff.ID, req.Date, req.Time, true)
	if err != nil {
		return model.Appointment{}, err
	}

	appt := model.Appointment{
		ClientName:    name,
		ClientPhone:   strings.TrimSpace(req.ClientPhone),
		ClientEmail:   strings.TrimSpace(req.ClientEmail),
		ServiceID:     svc.ID,
		StaffID:       staff.ID,
		Date:          date,
		Time:          slot,
		Status:        model.StatusPending,
		PaymentMethod: method,
		ReferenceCode: strings.ToUpper(strings.TrimSpace(req.ReferenceCode)),
		PaymentProof:  req.PaymentProof,
		TotalAmount:   svc.Price,
		CreatedAt:     s.now(),
	}
	return s.write(ctx, bookingid.PrefixClient, appt)
}

type BlockRequest struct {
	StaffID   string
	ServiceID string
	Date      string
	Time      string
	// WalkIn marks a real walk-in client rather than a withheld slot.
	WalkIn      bool
	ClientName  string
	ClientPhone string
}

// Block reserves a slot on behalf of the salon. Blocks are CONFIRMED, carry
// no amount and are paid in cash.
func (s *Service) Block(ctx context.Context, req BlockRequest) (model.Appointment, error) {
	staff, ok := s.catalog.StaffByID(strings.TrimSpace(req.StaffID))
	if !ok {
		return model.Appointment{}, fmt.Errorf("%w: unknown staff", ErrValidation)
	}
	date, slot, err := s.checkSlot(staff.ID, req.Date, req.Time, false)
	if err != nil {
		return model.Appointment{}, err
	}

	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		name = BlockedSlotName
		if req.WalkIn {
			name = WalkInName
		}
	}
	appt := model.Appointment{
		ClientName:    name,
		ClientPhone:   strings.TrimSpace(req.ClientPhone),
		ServiceID:     strings.TrimSpace(req.ServiceID),
		StaffID:       staff.ID,
		Date:          date,
		Time:          slot,
		Status:        model.StatusConfirmed,
		PaymentMethod: model.PaymentCash,
		TotalAmount:   0,
		CreatedAt:     s.now(),
	}
	return s.write(ctx, bookingid.PrefixBlock, appt)
}

// checkSlot validates the date and slot against the mirror. Past dates are
// never accepted; windowed also caps the date at the last bookable day.
func (s *Service) checkSlot(staffID, rawDate, rawTime string, windowed bool) (string, string, error) {
	date := strings.TrimSpace(rawDate)
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return "", "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if s.Past(date) {
		return "", "", fmt.Errorf("%w: date is in the past", ErrValidation)
	}
	if windowed && date > s.LastBookableDay() {
		return "", "", fmt.Errorf("%w: bookings open %d days ahead", ErrValidation, WindowDays)
	}
	slot := strings.ToUpper(strings.TrimSpace(rawTime))
	if !availability.IsValidSlot(slot) {
		return "", "", fmt.Errorf("%w: unknown time slot", ErrValidation)
	}
	if !availability.Bookable(s.catalog.Appointments(), staffID, date, slot) {
		return "", "", ErrSlotUnavailable
	}
	return date, slot, nil
}

func (s *Service) write(ctx context.Context, prefix string, appt model.Appointment) (model.Appointment, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID(prefix)
		if err != nil {
			return model.Appointment{}, fmt.Errorf("generate booking id: %w", err)
		}
		appt.ID = id

		err = s.retry(ctx, func(ctx context.Context) error {
			return s.store.CreateAppointment(ctx, appt)
		})
		switch {
		case err == nil:
			return appt, nil
		case errors.Is(err, recordstore.ErrDuplicateID):
			s.logger.Warn("booking id collision; regenerating", "id", id)
			continue
		default:
			return model.Appointment{}, err
		}
	}
	return model.Appointment{}, fmt.Errorf("create appointment: %w", recordstore.ErrDuplicateID)
}

// SetStatus applies a validated transition against the stored status.
func (s *Service) SetStatus(ctx context.Context, id string, to model.Status) (model.Appointment, error) {
	var updated model.Appointment
	err := s.retry(ctx, func(ctx context.Context) error {
		current, err := s.store.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		if err := Transition(current.Status, to); err != nil {
			return err
		}
		updated, err = s.store.UpdateStatus(ctx, id, current.Status, to)
		return err
	})
	if err != nil {
		return model.Appointment{}, err
	}
	return updated, nil
}

// Delete hard-deletes an appointment. Nothing else is touched.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.retry(ctx, func(ctx context.Context) error {
		return s.store.DeleteAppointment(ctx, id)
	})
}

// AttachFeedback records a client's rating once the visit date has passed.
func (s *Service) AttachFeedback(ctx context.Context, id, phone string, rating int, feedback string) (model.Appointment, error) {
	if rating < 1 || rating > 5 {
		return model.Appointment{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	feedback = strings.TrimSpace(feedback)

	var appt model.Appointment
	err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		appt, err = s.store.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		if appt.ClientPhone != strings.TrimSpace(phone) {
			return ErrNotOwner
		}
		if !s.Past(appt.Date) {
			return fmt.Errorf("%w: feedback opens after the appointment date", ErrValidation)
		}
		return s.store.SetFeedback(ctx, id, rating, feedback)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Rating = rating
	appt.Feedback = feedback
	return appt, nil
}

// Today is the salon's current calendar date.
func (s *Service) Today() string {
	return s.cfg.Now().In(s.cfg.Location).Format(model.DateLayout)
}

// LastBookableDay is the final date of the client booking window.
func (s *Service) LastBookableDay() string {
	return s.cfg.Now().In(s.cfg.Location).AddDate(0, 0, WindowDays-1).Format(model.DateLayout)
}

// Past reports whether date is strictly before today.
func (s *Service) Past(date string) bool {
	return date < s.Today()
}

// retry runs op with a per-attempt timeout and exponential backoff. Only
// ErrUnavailable is treated as transient.
func (s *Service) retry(ctx context.Context, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
		defer cancel()
		err := op(attemptCtx)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, recordstore.ErrUnavailable), errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Warn("record store write failed; retrying", "err", err, "retry_in", next)
		}),
	)
	return err
}

// now is truncated to the store's timestamp precision so a stored booking
// compares equal to its resubmission.
func (s *Service) now() time.Time {
	return s.cfg.Now().UTC().Truncate(time.Microsecond)
}
