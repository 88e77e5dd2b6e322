package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, recordstore.ErrNotFound},
		{"slot index", &pgconn.PgError{Code: "23505", ConstraintName: slotIndex}, recordstore.ErrSlotTaken},
		{"wrapped slot index", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: slotIndex}), recordstore.ErrSlotTaken},
		{"primary key", &pgconn.PgError{Code: "23505", ConstraintName: "clients_pkey"}, recordstore.ErrDuplicateID},
		{"stale", recordstore.ErrStaleStatus, recordstore.ErrStaleStatus},
		{"network", io.ErrUnexpectedEOF, recordstore.ErrUnavailable},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
	}
	for _, tc := range cases {
		if got := classify(tc.err); !errors.Is(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
	if classify(nil) != nil {
		t.Fatal("expected nil")
	}

	syntax := &pgconn.PgError{Code: "42601"}
	if got := classify(syntax); errors.Is(got, recordstore.ErrUnavailable) {
		t.Fatal("SQL errors are not connectivity errors")
	}
}

func TestSchemaDeclaresSlotIndexAndFeed(t *testing.T) {
	for _, want := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS " + slotIndex,
		"WHERE status <> 'CANCELLED'",
		"pg_notify('" + notifyChannel + "'",
		"'config/' || NEW.name",
	} {
		if !strings.Contains(schema, want) {
			t.Fatalf("schema missing %q", want)
		}
	}
	for _, r := range []recordstore.Resource{recordstore.ResourceAppointments, recordstore.ResourceServices, recordstore.ResourceStaff} {
		if !strings.Contains(schema, "notify_record_change('"+string(r)+"')") {
			t.Fatalf("schema has no change trigger for %s", r)
		}
	}
}
