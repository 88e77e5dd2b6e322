package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/outbox"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

const appointmentColumns = `id, client_name, client_phone, client_email, service_id, staff_id, date, time,
	status, payment_method, reference_code, payment_proof, total_amount, created_at, rating, feedback, notified`

func (s *Store) CreateAppointment(ctx context.Context, a model.Appointment) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO appointments (`+appointmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (id) DO NOTHING
		`, a.ID, a.ClientName, a.ClientPhone, a.ClientEmail, a.ServiceID, a.StaffID, a.Date, a.Time,
			a.Status, a.PaymentMethod, a.ReferenceCode, a.PaymentProof, a.TotalAmount, a.CreatedAt,
			a.Rating, a.Feedback, a.Notified)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			existing, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, a.ID))
			if err != nil {
				return err
			}
			if existing.SameBooking(a) {
				return nil
			}
			return recordstore.ErrDuplicateID
		}
		return s.emit(ctx, tx, outbox.EventAppointmentBooked, a, "")
	})
}

func (s *Store) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return model.Appointment{}, classify(err)
	}
	return a, nil
}

func (s *Store) FindAppointments(ctx context.Context, field recordstore.Field, value string) ([]model.Appointment, error) {
	var column string
	switch field {
	case recordstore.FieldID:
		column = "id"
	case recordstore.FieldReferenceCode:
		column = "reference_code"
	case recordstore.FieldClientPhone:
		column = "client_phone"
	default:
		return nil, fmt.Errorf("unsupported field %q", field)
	}
	if value == "" {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE `+column+` = $1
		ORDER BY date DESC, created_at DESC
	`, value)
	if err != nil {
		return nil, classify(err)
	}
	appts, err := collectAppointments(rows)
	return appts, classify(err)
}

func (s *Store) UpdateStatus(ctx context.Context, id string, from, to model.Status) (model.Appointment, error) {
	var updated model.Appointment
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var current model.Status
		if err := tx.QueryRow(ctx, `SELECT status FROM appointments WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			return err
		}
		if current != from {
			return recordstore.ErrStaleStatus
		}
		var err error
		updated, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments SET status = $2 WHERE id = $1
			RETURNING `+appointmentColumns, id, to))
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, outbox.EventAppointmentStatusChanged, updated, from)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	return updated, nil
}

func (s *Store) SetFeedback(ctx context.Context, id string, rating int, feedback string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		a, err := scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments SET rating = $2, feedback = $3 WHERE id = $1
			RETURNING `+appointmentColumns, id, rating, feedback))
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, outbox.EventAppointmentFeedback, a, "")
	})
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		a, err := scanAppointment(tx.QueryRow(ctx, `DELETE FROM appointments WHERE id = $1 RETURNING `+appointmentColumns, id))
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, outbox.EventAppointmentDeleted, a, "")
	})
}

func (s *Store) listAppointments(ctx context.Context) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments ORDER BY date, time, id`)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (s *Store) emit(ctx context.Context, tx pgx.Tx, eventType string, a model.Appointment, previous model.Status) error {
	evt, err := outbox.AppointmentEvent(eventType, a, previous)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	return s.outbox.Insert(ctx, tx, evt)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.ClientName,
		&a.ClientPhone,
		&a.ClientEmail,
		&a.ServiceID,
		&a.StaffID,
		&a.Date,
		&a.Time,
		&a.Status,
		&a.PaymentMethod,
		&a.ReferenceCode,
		&a.PaymentProof,
		&a.TotalAmount,
		&a.CreatedAt,
		&a.Rating,
		&a.Feedback,
		&a.Notified,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}
