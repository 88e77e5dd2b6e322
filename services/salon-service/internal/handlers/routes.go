package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/glamflow/libs/httpx"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/live"
)

type Routes struct {
	Public *PublicHandler
	Portal *PortalHandler
	Admin  *AdminHandler
	Live   *live.Hub
	Secret string
	// Limit throttles the public routes that write or hit the record store.
	Limit httpx.Middleware
}

func Register(mux *http.ServeMux, rt Routes) {
	limit := rt.Limit
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	mux.HandleFunc("/api/v1/public/catalog", rt.Public.Catalog)
	mux.HandleFunc("/api/v1/public/slots", rt.Public.Slots)
	mux.Handle("/api/v1/public/book", limit(Client(rt.Public.Book, rt.Secret)))
	mux.Handle("/api/v1/public/track", limit(http.HandlerFunc(rt.Public.Track)))
	mux.Handle("/api/v1/public/concierge", limit(http.HandlerFunc(rt.Public.Concierge)))

	mux.Handle("/api/v1/portal/login", limit(http.HandlerFunc(rt.Portal.Login)))
	mux.Handle("/api/v1/portal/appointments", Client(rt.Portal.Appointments, rt.Secret))
	mux.Handle("/api/v1/portal/feedback", Client(rt.Portal.Feedback, rt.Secret))

	mux.Handle("/api/v1/admin/appointments/status", Admin(rt.Admin.SetStatus, rt.Secret))
	mux.Handle("/api/v1/admin/appointments/block", Admin(rt.Admin.Block, rt.Secret))
	mux.Handle("/api/v1/admin/appointments/delete", Admin(rt.Admin.Delete, rt.Secret))
	mux.Handle("/api/v1/admin/schedule", Admin(rt.Admin.Schedule, rt.Secret))
	mux.Handle("/api/v1/admin/stats", Admin(rt.Admin.Stats, rt.Secret))
	mux.Handle("/api/v1/admin/promo", Admin(rt.Admin.Promo, rt.Secret))
	mux.Handle("/api/v1/admin/settings", Admin(rt.Admin.Settings, rt.Secret))
	mux.Handle("/api/v1/admin/services", Admin(rt.Admin.PutService, rt.Secret))
	mux.Handle("/api/v1/admin/services/delete", Admin(rt.Admin.DeleteService, rt.Secret))
	mux.Handle("/api/v1/admin/staff", Admin(rt.Admin.PutStaff, rt.Secret))
	mux.Handle("/api/v1/admin/staff/delete", Admin(rt.Admin.DeleteStaff, rt.Secret))

	if rt.Live != nil {
		mux.Handle("/api/v1/public/live", rt.Live.Handler(live.Public))
		mux.Handle("/api/v1/admin/live", Admin(rt.Live.Handler(live.Admin), rt.Secret))
	}
}
