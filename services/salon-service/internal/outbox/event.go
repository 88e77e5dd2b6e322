package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
)

const (
	EventAppointmentBooked        = "salon.appointment.booked.v1"
	EventAppointmentStatusChanged = "salon.appointment.status_changed.v1"
	EventAppointmentFeedback      = "salon.appointment.feedback_added.v1"
	EventAppointmentDeleted       = "salon.appointment.deleted.v1"
)

// Event is written to outbox_events in the same transaction as the change it
// describes. The Kafka topic equals EventType.
type Event struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type appointmentPayload struct {
	EventID       string `json:"event_id"`
	AppointmentID string `json:"appointment_id"`
	ClientName    string `json:"client_name"`
	ClientPhone   string `json:"client_phone"`
	ClientEmail   string `json:"client_email,omitempty"`
	ServiceID     string `json:"service_id"`
	StaffID       string `json:"staff_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	PreviousState string `json:"previous_status,omitempty"`
	PaymentMethod string `json:"payment_method"`
	TotalAmount   int64  `json:"total_amount"`
	Rating        int    `json:"rating,omitempty"`
	Feedback      string `json:"feedback,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// AppointmentEvent builds an event for a. The payment proof image is never
// included. previous is only set for status changes.
func AppointmentEvent(eventType string, a model.Appointment, previous model.Status) (Event, error) {
	id := uuid.New()
	payload, err := json.Marshal(appointmentPayload{
		EventID:       id.String(),
		AppointmentID: a.ID,
		ClientName:    a.ClientName,
		ClientPhone:   a.ClientPhone,
		ClientEmail:   a.ClientEmail,
		ServiceID:     a.ServiceID,
		StaffID:       a.StaffID,
		Date:          a.Date,
		Time:          a.Time,
		Status:        string(a.Status),
		PreviousState: string(previous),
		PaymentMethod: string(a.PaymentMethod),
		TotalAmount:   a.TotalAmount,
		Rating:        a.Rating,
		Feedback:      a.Feedback,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            id,
		AggregateType: "appointment",
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
