package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/booking"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/insights"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/mirror"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

type AdminHandler struct {
	mirror   *mirror.Mirror
	bookings *booking.Service
	store    recordstore.Store
	logger   *slog.Logger
	location *time.Location
	now      func() time.Time
}

func NewAdminHandler(m *mirror.Mirror, bookings *booking.Service, store recordstore.Store, logger *slog.Logger, location *time.Location) *AdminHandler {
	if location == nil {
		location = time.UTC
	}
	return &AdminHandler{mirror: m, bookings: bookings, store: store, logger: logger, location: location, now: time.Now}
}

type statusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	to, ok := model.ParseStatus(req.Status)
	if strings.TrimSpace(req.ID) == "" || !ok {
		http.Error(w, "id and a valid status required", http.StatusBadRequest)
		return
	}
	appt, err := h.bookings.SetStatus(r.Context(), strings.TrimSpace(req.ID), to)
	if err != nil {
		writeError(w, h.logger, "failed to update status", err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type blockRequest struct {
	StaffID     string `json:"staff_id"`
	ServiceID   string `json:"service_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	WalkIn      bool   `json:"walk_in"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
}

func (h *AdminHandler) Block(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req blockRequest
	if !decode(w, r, &req) {
		return
	}
	appt, err := h.bookings.Block(r.Context(), booking.BlockRequest{
		StaffID:     req.StaffID,
		ServiceID:   req.ServiceID,
		Date:        req.Date,
		Time:        req.Time,
		WalkIn:      req.WalkIn,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
	})
	if err != nil {
		writeError(w, h.logger, "failed to block slot", err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

type deleteRequest struct {
	ID string `json:"id"`
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req deleteRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if err := h.bookings.Delete(r.Context(), strings.TrimSpace(req.ID)); err != nil {
		writeError(w, h.logger, "failed to delete appointment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scheduleResponse struct {
	Date         string                   `json:"date"`
	Appointments []insights.ScheduleEntry `json:"appointments"`
}

// Schedule lists one day's appointments; the date defaults to today.
func (h *AdminHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = h.now().In(h.location).Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, date); err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{Date: date, Appointments: insights.Schedule(h.mirror, date)})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, insights.ComputeStats(h.mirror.Appointments(), h.now().In(h.location)))
}

type promoRequest struct {
	Message *string `json:"message"`
}

// Promo sets the announcement; a null or blank message clears it.
func (h *AdminHandler) Promo(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}
	var req promoRequest
	if !decode(w, r, &req) {
		return
	}
	var promo model.Promo
	if req.Message != nil {
		if msg := strings.TrimSpace(*req.Message); msg != "" {
			promo.Message = &msg
		}
	}
	if err := h.store.PutPromo(r.Context(), promo); err != nil {
		writeError(w, h.logger, "failed to save promo", err)
		return
	}
	writeJSON(w, http.StatusOK, promo)
}

// Settings merges the submitted keys into the current site settings, so a
// partial document only changes what it names.
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	settings, err := model.MergeSettings(h.mirror.Settings(), raw)
	if err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(settings.SiteName) == "" {
		http.Error(w, "site name required", http.StatusBadRequest)
		return
	}
	if err := h.store.PutSiteSettings(r.Context(), settings); err != nil {
		writeError(w, h.logger, "failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PutService creates or replaces a catalogue service. A missing id creates a
// new one. Existing bookings keep their price snapshot.
func (h *AdminHandler) PutService(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}
	var svc model.Service
	if !decode(w, r, &svc) {
		return
	}
	svc.ID = strings.TrimSpace(svc.ID)
	svc.Name = strings.TrimSpace(svc.Name)
	svc.Category = strings.TrimSpace(svc.Category)
	if svc.Name == "" || svc.DurationMinutes <= 0 || svc.Price < 0 {
		http.Error(w, "name, positive duration and non-negative price required", http.StatusBadRequest)
		return
	}
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if err := h.store.PutService(r.Context(), svc); err != nil {
		writeError(w, h.logger, "failed to save service", err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *AdminHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	h.deleteCatalogEntry(w, r, "service", h.store.DeleteService)
}

// PutStaff creates or replaces a staff member. A missing id creates a new one.
func (h *AdminHandler) PutStaff(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}
	var st model.Staff
	if !decode(w, r, &st) {
		return
	}
	st.ID = strings.TrimSpace(st.ID)
	st.Name = strings.TrimSpace(st.Name)
	st.Role = strings.TrimSpace(st.Role)
	if st.Name == "" || st.Role == "" || st.Rating < 0 || st.Rating > 5 {
		http.Error(w, "name, role and a rating between 0 and 5 required", http.StatusBadRequest)
		return
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if err := h.store.PutStaff(r.Context(), st); err != nil {
		writeError(w, h.logger, "failed to save staff", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *AdminHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	h.deleteCatalogEntry(w, r, "staff", h.store.DeleteStaff)
}

func (h *AdminHandler) deleteCatalogEntry(w http.ResponseWriter, r *http.Request, kind string, del func(ctx context.Context, id string) error) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req deleteRequest
	if !decode(w, r, &req) {
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if err := del(r.Context(), id); err != nil {
		writeError(w, h.logger, "failed to delete "+kind, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
