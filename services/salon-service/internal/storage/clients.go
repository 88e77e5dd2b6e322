package storage

import (
	"context"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

func (s *Store) GetClient(ctx context.Context, phone string) (model.ClientAccount, error) {
	var c model.ClientAccount
	err := s.pool.QueryRow(ctx, `
		SELECT phone, pin_hash, created_at FROM clients WHERE phone = $1
	`, phone).Scan(&c.Phone, &c.PinHash, &c.CreatedAt)
	if err != nil {
		return model.ClientAccount{}, classify(err)
	}
	return c, nil
}

func (s *Store) CreateClient(ctx context.Context, c model.ClientAccount) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO clients (phone, pin_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO NOTHING
	`, c.Phone, c.PinHash, c.CreatedAt)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return recordstore.ErrDuplicateID
	}
	return nil
}
