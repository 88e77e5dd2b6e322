// Package live pushes mirror snapshots to websocket viewers. Public viewers
// only see slot occupancy; admin viewers see full appointments.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/mirror"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
)

type Audience string

const (
	Public Audience = "public"
	Admin  Audience = "admin"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type Source interface {
	Subscribe() (<-chan mirror.Change, func())
	Connected() bool
	Appointments() []model.Appointment
	Services() []model.Service
	Staff() []model.Staff
	Settings() model.SiteSettings
	Promo() model.Promo
}

// Occupancy is the public shape of an appointment.
type Occupancy struct {
	StaffID string `json:"staffId"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

type Frame struct {
	Type         string              `json:"type"`
	ViewerID     string              `json:"viewerId"`
	Connected    bool                `json:"connected"`
	Services     []model.Service     `json:"services"`
	Staff        []model.Staff       `json:"staff"`
	Settings     model.SiteSettings  `json:"settings"`
	Promo        model.Promo         `json:"promo"`
	Occupancy    []Occupancy         `json:"occupancy,omitempty"`
	Appointments []model.Appointment `json:"appointments,omitempty"`
}

type viewer struct {
	id       string
	audience Audience
	conn     *websocket.Conn
	send     chan Frame
	done     chan struct{}
	once     sync.Once
}

func (v *viewer) close() {
	v.once.Do(func() { close(v.done) })
}

type Hub struct {
	src       Source
	logger    *slog.Logger
	onViewers func(audience string, delta int)
	upgrader  websocket.Upgrader
	changes   <-chan mirror.Change
	release   func()

	mu      sync.Mutex
	viewers map[*viewer]struct{}
}

// NewHub builds a hub. onViewers, when set, is told about every connect and
// disconnect.
func NewHub(src Source, logger *slog.Logger, onViewers func(audience string, delta int)) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	changes, release := src.Subscribe()
	return &Hub{
		changes:   changes,
		release:   release,
		src:       src,
		logger:    logger,
		onViewers: onViewers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Any origin may watch; the admin feed sits behind token auth.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		viewers: map[*viewer]struct{}{},
	}
}

// Run fans mirror changes out to viewers until ctx ends. Changes are
// collected from NewHub onwards.
func (h *Hub) Run(ctx context.Context) {
	defer h.release()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.changes:
			h.broadcast()
		}
	}
}

func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

func (h *Hub) Handler(audience Audience) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "err", err)
			return
		}
		v := &viewer{
			id:       uuid.NewString(),
			audience: audience,
			conn:     conn,
			send:     make(chan Frame, 1),
			done:     make(chan struct{}),
		}
		v.send <- h.frame(audience)
		h.register(v)

		go h.writePump(v)
		h.readPump(v)
	}
}

func (h *Hub) register(v *viewer) {
	h.mu.Lock()
	h.viewers[v] = struct{}{}
	h.mu.Unlock()
	if h.onViewers != nil {
		h.onViewers(string(v.audience), 1)
	}
	h.logger.Debug("live viewer connected", "viewer_id", v.id, "audience", v.audience)
}

func (h *Hub) unregister(v *viewer) {
	h.mu.Lock()
	_, ok := h.viewers[v]
	delete(h.viewers, v)
	h.mu.Unlock()
	v.close()
	if ok && h.onViewers != nil {
		h.onViewers(string(v.audience), -1)
	}
}

func (h *Hub) broadcast() {
	frames := map[Audience]Frame{
		Public: h.frame(Public),
		Admin:  h.frame(Admin),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		// Latest wins: a viewer that has not taken the previous frame gets
		// the new one instead.
		select {
		case <-v.send:
		default:
		}
		v.send <- frames[v.audience]
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	viewers := make([]*viewer, 0, len(h.viewers))
	for v := range h.viewers {
		viewers = append(viewers, v)
	}
	h.mu.Unlock()
	for _, v := range viewers {
		h.unregister(v)
	}
}

func (h *Hub) frame(audience Audience) Frame {
	f := Frame{
		Type:      "snapshot",
		Connected: h.src.Connected(),
		Services:  h.src.Services(),
		Staff:     h.src.Staff(),
		Settings:  h.src.Settings(),
		Promo:     h.src.Promo(),
	}
	appts := h.src.Appointments()
	if audience == Admin {
		f.Appointments = appts
		return f
	}
	f.Occupancy = make([]Occupancy, 0, len(appts))
	for _, a := range appts {
		if a.Holds() {
			f.Occupancy = append(f.Occupancy, Occupancy{StaffID: a.StaffID, Date: a.Date, Time: a.Time})
		}
	}
	return f
}

func (h *Hub) readPump(v *viewer) {
	defer func() {
		h.unregister(v)
		_ = v.conn.Close()
	}()
	v.conn.SetReadLimit(512)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("live viewer read failed", "viewer_id", v.id, "err", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(v *viewer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = v.conn.Close()
	}()
	for {
		select {
		case <-v.done:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = v.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case f := <-v.send:
			f.ViewerID = v.id
			payload, err := json.Marshal(f)
			if err != nil {
				h.logger.Error("encode live frame failed", "err", err)
				continue
			}
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.unregister(v)
				return
			}
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(v)
				return
			}
		}
	}
}
