package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesCounters(t *testing.T) {
	Register()
	Register()

	IncPush("appointments", "applied")
	IncBooking("created")
	IncLookup("local")
	IncFallback("consultation")
	AddViewers("public", 2)
	AddViewers("public", -1)
	AddOutboxPublished(3)
	SetConnected(true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`glamflow_sync_pushes_total{outcome="applied",resource="appointments"} 1`,
		`glamflow_bookings_total{result="created"} 1`,
		`glamflow_live_viewers{audience="public"} 1`,
		`glamflow_outbox_published_total 3`,
		`glamflow_sync_connected 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
