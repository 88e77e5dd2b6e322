package storage

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

const (
	docSiteSettings = "siteSettings"
	docPromo        = "promo"
)

func (s *Store) PutService(ctx context.Context, svc model.Service) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO services (id, name, duration_minutes, price, category, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			duration_minutes = EXCLUDED.duration_minutes,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image = EXCLUDED.image
	`, svc.ID, svc.Name, svc.DurationMinutes, svc.Price, svc.Category, svc.Image)
	return classify(err)
}

func (s *Store) PutStaff(ctx context.Context, st model.Staff) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO staff (id, name, role, rating, avatar)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			rating = EXCLUDED.rating,
			avatar = EXCLUDED.avatar
	`, st.ID, st.Name, st.Role, st.Rating, st.Avatar)
	return classify(err)
}

func (s *Store) DeleteService(ctx context.Context, id string) error {
	return s.deleteRow(ctx, `DELETE FROM services WHERE id = $1`, id)
}

func (s *Store) DeleteStaff(ctx context.Context, id string) error {
	return s.deleteRow(ctx, `DELETE FROM staff WHERE id = $1`, id)
}

func (s *Store) deleteRow(ctx context.Context, sql, id string) error {
	tag, err := s.pool.Exec(ctx, sql, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return recordstore.ErrNotFound
	}
	return nil
}

func (s *Store) PutSiteSettings(ctx context.Context, settings model.SiteSettings) error {
	return s.putDocument(ctx, docSiteSettings, settings)
}

func (s *Store) PutPromo(ctx context.Context, p model.Promo) error {
	return s.putDocument(ctx, docPromo, p)
}

// SeedCatalog inserts the given services and staff only into empty tables.
func (s *Store) SeedCatalog(ctx context.Context, services []model.Service, staff []model.Staff) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var n int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM services`).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			for _, svc := range services {
				if _, err := tx.Exec(ctx, `
					INSERT INTO services (id, name, duration_minutes, price, category, image)
					VALUES ($1, $2, $3, $4, $5, $6)
				`, svc.ID, svc.Name, svc.DurationMinutes, svc.Price, svc.Category, svc.Image); err != nil {
					return err
				}
			}
		}
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM staff`).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			for _, st := range staff {
				if _, err := tx.Exec(ctx, `
					INSERT INTO staff (id, name, role, rating, avatar)
					VALUES ($1, $2, $3, $4, $5)
				`, st.ID, st.Name, st.Role, st.Rating, st.Avatar); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Store) listServices(ctx context.Context) ([]model.Service, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, duration_minutes, price, category, image
		FROM services
		ORDER BY length(id), id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.DurationMinutes, &svc.Price, &svc.Category, &svc.Image); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (s *Store) listStaff(ctx context.Context) ([]model.Staff, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, role, rating, avatar
		FROM staff
		ORDER BY length(id), id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []model.Staff
	for rows.Next() {
		var st model.Staff
		if err := rows.Scan(&st.ID, &st.Name, &st.Role, &st.Rating, &st.Avatar); err != nil {
			return nil, err
		}
		staff = append(staff, st)
	}
	return staff, rows.Err()
}

// loadSettings returns nil when the document does not exist. Stored keys
// override the built-in defaults; missing keys keep them.
func (s *Store) loadSettings(ctx context.Context) (*model.SiteSettings, error) {
	raw, ok, err := s.rawDocument(ctx, docSiteSettings)
	if err != nil || !ok {
		return nil, err
	}
	settings, err := model.MergeSettings(s.settingsBase, raw)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) loadPromo(ctx context.Context) (*model.Promo, error) {
	var promo model.Promo
	ok, err := s.getDocument(ctx, docPromo, &promo)
	if err != nil || !ok {
		return nil, err
	}
	return &promo, nil
}

func (s *Store) putDocument(ctx context.Context, name string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO site_documents (name, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`, name, raw)
	return classify(err)
}

func (s *Store) getDocument(ctx context.Context, name string, dst any) (bool, error) {
	raw, ok, err := s.rawDocument(ctx, name)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) rawDocument(ctx context.Context, name string) ([]byte, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM site_documents WHERE name = $1`, name).Scan(&raw)
	if IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}
