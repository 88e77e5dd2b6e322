package handlers

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/availability"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/booking"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/concierge"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/lookup"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/metrics"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/mirror"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

type PublicHandler struct {
	mirror    *mirror.Mirror
	bookings  *booking.Service
	resolver  *lookup.Resolver
	concierge *concierge.Concierge
	logger    *slog.Logger
}

func NewPublicHandler(m *mirror.Mirror, bookings *booking.Service, resolver *lookup.Resolver, c *concierge.Concierge, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{mirror: m, bookings: bookings, resolver: resolver, concierge: c, logger: logger}
}

type catalogResponse struct {
	Services  []model.Service    `json:"services"`
	Staff     []model.Staff      `json:"staff"`
	Settings  model.SiteSettings `json:"settings"`
	Promo     model.Promo        `json:"promo"`
	Connected bool               `json:"connected"`
}

func (h *PublicHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		Services:  h.mirror.Services(),
		Staff:     h.mirror.Staff(),
		Settings:  h.mirror.Settings(),
		Promo:     h.mirror.Promo(),
		Connected: h.mirror.Connected(),
	})
}

type slotsResponse struct {
	StaffID string              `json:"staff_id"`
	Date    string              `json:"date"`
	Slots   []availability.Slot `json:"slots"`
}

func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if staffID == "" || date == "" {
		http.Error(w, "staff_id and date required", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if _, ok := h.mirror.StaffByID(staffID); !ok {
		http.Error(w, "unknown staff", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{
		StaffID: staffID,
		Date:    date,
		Slots:   availability.Grid(h.mirror.Appointments(), staffID, date),
	})
}

type bookRequest struct {
	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email"`
	ServiceID     string `json:"service_id"`
	StaffID       string `json:"staff_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	PaymentMethod string `json:"payment_method"`
	ReferenceCode string `json:"reference_code"`
	PaymentProof  string `json:"payment_proof"`
}

type bookResponse struct {
	Appointment model.Appointment `json:"appointment"`
	Message     string            `json:"message"`
}

// Book creates a PENDING appointment for the signed-in client.
func (h *PublicHandler) Book(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req bookRequest
	if !decode(w, r, &req) {
		return
	}

	appt, err := h.bookings.Create(r.Context(), booking.Request{
		ClientName:    req.ClientName,
		ClientPhone:   r.Header.Get(headerUserID),
		ClientEmail:   req.ClientEmail,
		ServiceID:     req.ServiceID,
		StaffID:       req.StaffID,
		Date:          req.Date,
		Time:          req.Time,
		PaymentMethod: req.PaymentMethod,
		ReferenceCode: req.ReferenceCode,
		PaymentProof:  req.PaymentProof,
	})
	if err != nil {
		switch {
		case errors.Is(err, recordstore.ErrSlotTaken), errors.Is(err, booking.ErrSlotUnavailable):
			metrics.IncBooking("conflict")
		case statusFor(err) == http.StatusBadRequest:
			metrics.IncBooking("invalid")
		default:
			metrics.IncBooking("failed")
		}
		writeError(w, h.logger, "failed to create booking", err)
		return
	}
	metrics.IncBooking("created")

	// The booking is committed; the confirmation text is best effort.
	msg := h.concierge.Confirmation(r.Context(), appt, h.mirror.ServiceName(appt.ServiceID), h.mirror.StaffName(appt.StaffID))
	appt.PaymentProof = ""
	writeJSON(w, http.StatusCreated, bookResponse{Appointment: appt, Message: msg})
}

type trackResponse struct {
	Appointment model.Appointment `json:"appointment"`
	ServiceName string            `json:"service_name"`
	StaffName   string            `json:"staff_name"`
	Source      lookup.Source     `json:"source"`
}

// Track resolves a booking id, reference code or phone number.
func (h *PublicHandler) Track(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	res, err := h.resolver.Resolve(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			metrics.IncLookup("miss")
		}
		writeError(w, h.logger, "lookup failed", err)
		return
	}
	metrics.IncLookup(string(res.Source))

	appt := res.Appointment
	appt.PaymentProof = ""
	writeJSON(w, http.StatusOK, trackResponse{
		Appointment: appt,
		ServiceName: h.mirror.ServiceName(appt.ServiceID),
		StaffName:   h.mirror.StaffName(appt.StaffID),
		Source:      res.Source,
	})
}

type conciergeRequest struct {
	Message string `json:"message"`
	// Image is a base64 JPEG; when present the reply is a look analysis.
	Image string `json:"image"`
}

type conciergeResponse struct {
	Reply string `json:"reply"`
}

func (h *PublicHandler) Concierge(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req conciergeRequest
	if !decode(w, r, &req) {
		return
	}

	if raw := strings.TrimSpace(req.Image); raw != "" {
		if i := strings.Index(raw, ","); strings.HasPrefix(raw, "data:") && i > 0 {
			raw = raw[i+1:]
		}
		img, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			http.Error(w, "image must be base64", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, conciergeResponse{Reply: h.concierge.AnalyzeLook(r.Context(), img)})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message or image required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, conciergeResponse{Reply: h.concierge.Consult(r.Context(), req.Message, h.mirror.Services())})
}
