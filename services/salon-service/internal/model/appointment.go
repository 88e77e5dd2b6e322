package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusConfirmed   Status = "CONFIRMED"
	StatusRescheduled Status = "RESCHEDULED"
	StatusCancelled   Status = "CANCELLED"
)

func ParseStatus(raw string) (Status, bool) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusPending, StatusConfirmed, StatusRescheduled, StatusCancelled:
		return s, true
	default:
		return "", false
	}
}

type PaymentMethod string

const (
	PaymentGCash        PaymentMethod = "GCASH"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCash         PaymentMethod = "CASH"
)

// ParsePaymentMethod defaults an empty value to GCASH.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return PaymentGCash, true
	}
	switch m := PaymentMethod(raw); m {
	case PaymentGCash, PaymentBankTransfer, PaymentCash:
		return m, true
	default:
		return "", false
	}
}

// DateLayout is the calendar form used for Appointment.Date.
const DateLayout = "2006-01-02"

type Appointment struct {
	ID            string        `json:"id"`
	ClientName    string        `json:"clientName"`
	ClientPhone   string        `json:"clientPhone"`
	ClientEmail   string        `json:"clientEmail,omitempty"`
	ServiceID     string        `json:"serviceId"`
	StaffID       string        `json:"staffId"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	ReferenceCode string        `json:"referenceCode,omitempty"`
	PaymentProof  string        `json:"paymentProof,omitempty"`
	TotalAmount   int64         `json:"totalAmount"`
	CreatedAt     time.Time     `json:"createdAt"`
	Rating        int           `json:"rating,omitempty"`
	Feedback      string        `json:"feedback,omitempty"`
	Notified      bool          `json:"notified,omitempty"`
}

// Holds reports whether the appointment occupies its slot.
func (a Appointment) Holds() bool {
	return a.Status != StatusCancelled
}

// SameBooking reports whether b is a resubmission of a: identical apart from
// fields that only the store mutates after creation.
func (a Appointment) SameBooking(b Appointment) bool {
	return a.ID == b.ID &&
		a.ClientName == b.ClientName &&
		a.ClientPhone == b.ClientPhone &&
		a.ClientEmail == b.ClientEmail &&
		a.ServiceID == b.ServiceID &&
		a.StaffID == b.StaffID &&
		a.Date == b.Date &&
		a.Time == b.Time &&
		a.PaymentMethod == b.PaymentMethod &&
		a.ReferenceCode == b.ReferenceCode &&
		a.TotalAmount == b.TotalAmount &&
		a.CreatedAt.Equal(b.CreatedAt)
}
