package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/booking"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/portal"
)

type PortalHandler struct {
	portal   *portal.Portal
	bookings *booking.Service
	logger   *slog.Logger
}

func NewPortalHandler(p *portal.Portal, bookings *booking.Service, logger *slog.Logger) *PortalHandler {
	return &PortalHandler{portal: p, bookings: bookings, logger: logger}
}

type loginRequest struct {
	Phone string `json:"phone"`
	Pin   string `json:"pin"`
}

func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := h.portal.Login(r.Context(), req.Phone, req.Pin)
	if err != nil {
		writeError(w, h.logger, "login failed", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *PortalHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.portal.History(r.Header.Get(headerUserID)))
}

type feedbackRequest struct {
	AppointmentID string `json:"appointment_id"`
	Rating        int    `json:"rating"`
	Feedback      string `json:"feedback"`
}

func (h *PortalHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req feedbackRequest
	if !decode(w, r, &req) {
		return
	}
	id := strings.TrimSpace(req.AppointmentID)
	if id == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	appt, err := h.bookings.AttachFeedback(r.Context(), id, r.Header.Get(headerUserID), req.Rating, req.Feedback)
	if err != nil {
		writeError(w, h.logger, "failed to save feedback", err)
		return
	}
	appt.PaymentProof = ""
	writeJSON(w, http.StatusOK, appt)
}
