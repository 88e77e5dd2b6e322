// Package lookup finds a booking by id, payment reference or phone number,
// first in the local mirror and then in the record store.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

var (
	ErrNotFound    = errors.New("booking not found")
	ErrUnavailable = errors.New("unable to reach booking records")
)

type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

type Result struct {
	Appointment model.Appointment
	Source      Source
}

type Local interface {
	Appointments() []model.Appointment
}

type Remote interface {
	FindAppointments(ctx context.Context, field recordstore.Field, value string) ([]model.Appointment, error)
}

type Resolver struct {
	local   Local
	remote  Remote
	timeout time.Duration
}

func NewResolver(local Local, remote Remote, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{local: local, remote: remote, timeout: timeout}
}

// Resolve tries id, then reference code, then phone; locally first. When a
// key matches several bookings the one with the latest date wins.
func (r *Resolver) Resolve(ctx context.Context, key string) (Result, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Result{}, ErrNotFound
	}

	if a, ok := resolveLocal(r.local.Appointments(), key); ok {
		return Result{Appointment: a, Source: SourceLocal}, nil
	}

	upper := strings.ToUpper(key)
	queries := []struct {
		field recordstore.Field
		value string
	}{
		{recordstore.FieldID, upper},
		{recordstore.FieldReferenceCode, upper},
		{recordstore.FieldClientPhone, key},
	}
	for _, q := range queries {
		found, err := r.find(ctx, q.field, q.value)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(found) > 0 {
			return Result{Appointment: latest(found), Source: SourceRemote}, nil
		}
	}
	return Result{}, ErrNotFound
}

func (r *Resolver) find(ctx context.Context, field recordstore.Field, value string) ([]model.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.remote.FindAppointments(ctx, field, value)
}

func resolveLocal(appts []model.Appointment, key string) (model.Appointment, bool) {
	matchers := []func(model.Appointment) bool{
		func(a model.Appointment) bool { return strings.EqualFold(a.ID, key) },
		func(a model.Appointment) bool { return a.ReferenceCode != "" && strings.EqualFold(a.ReferenceCode, key) },
		func(a model.Appointment) bool { return a.ClientPhone == key },
	}
	for _, match := range matchers {
		var hits []model.Appointment
		for _, a := range appts {
			if match(a) {
				hits = append(hits, a)
			}
		}
		if len(hits) > 0 {
			return latest(hits), true
		}
	}
	return model.Appointment{}, false
}

// latest orders by date descending, then by creation time.
func latest(appts []model.Appointment) model.Appointment {
	sorted := append([]model.Appointment(nil), appts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date > sorted[j].Date
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted[0]
}
