package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

// Ensure pgCameraRepo implements repository.CameraRepository.
var _ repository.CameraRepository = (*pgCameraRepo)(nil)

const cameraColumns = `id, label, ip_address, port, protocol, stream_url, username, password_encrypted,
       branch_id, bay_zone, model, notes, status, login_method, created_at, updated_at`

type pgCameraRepo struct {
	q querier
}

func (r *pgCameraRepo) Create(ctx context.Context, c *domain.Camera) error {
	query := `
		INSERT INTO cameras (label, ip_address, port, protocol, stream_url, username, password_encrypted,
		                     branch_id, bay_zone, model, notes, status, login_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		RETURNING id`

	now := time.Now().UTC()
	err := r.q.QueryRow(ctx, query,
		c.Label, c.IPAddress, c.Port, c.Protocol, c.StreamURL, c.Username, c.PasswordEncrypted,
		c.BranchID, c.BayZone, c.Model, c.Notes, c.Status, c.LoginMethod, now,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("postgres: create camera: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *pgCameraRepo) GetByID(ctx context.Context, id int64) (*domain.Camera, error) {
	return r.get(ctx, `SELECT `+cameraColumns+` FROM cameras WHERE id = $1`, id)
}

func (r *pgCameraRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Camera, error) {
	return r.get(ctx, `SELECT `+cameraColumns+` FROM cameras WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgCameraRepo) get(ctx context.Context, query string, id int64) (*domain.Camera, error) {
	c, err := scanCamera(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCameraNotFound
		}
		return nil, fmt.Errorf("postgres: get camera by id: %w", err)
	}
	return c, nil
}

func (r *pgCameraRepo) ListByBranch(ctx context.Context, branchID int64, status domain.CameraStatus) ([]*domain.Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM cameras WHERE branch_id = $1`
	args := []any{branchID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []*domain.Camera
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan camera: %w", err)
		}
		cameras = append(cameras, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list cameras: %w", err)
	}
	return cameras, nil
}

func (r *pgCameraRepo) SetStatus(ctx context.Context, id int64, status domain.CameraStatus) error {
	query := `UPDATE cameras SET status = $1, updated_at = $2 WHERE id = $3`
	tag, err := r.q.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("postgres: set camera status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCameraNotFound
	}
	return nil
}

func scanCamera(row pgx.Row) (*domain.Camera, error) {
	c := &domain.Camera{}
	err := row.Scan(
		&c.ID, &c.Label, &c.IPAddress, &c.Port, &c.Protocol, &c.StreamURL, &c.Username, &c.PasswordEncrypted,
		&c.BranchID, &c.BayZone, &c.Model, &c.Notes, &c.Status, &c.LoginMethod, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
