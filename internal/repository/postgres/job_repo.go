package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

// Ensure pgJobRepo implements repository.JobRepository.
var _ repository.JobRepository = (*pgJobRepo)(nil)

const jobColumns = `id, branch_id, camera_id, status, customer_name, customer_phone_country_code,
       customer_phone_number, car_model, car_year, issue_description, entered_at, completed_at,
       created_at, updated_at`

type pgJobRepo struct {
	q querier
}

func (r *pgJobRepo) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (branch_id, camera_id, status, customer_name, customer_phone_country_code,
		                  customer_phone_number, car_model, car_year, issue_description, entered_at,
		                  created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id`

	now := time.Now().UTC()
	err := r.q.QueryRow(ctx, query,
		job.BranchID, job.CameraID, job.Status, job.CustomerName, job.CustomerPhoneCountryCode,
		job.CustomerPhoneNumber, job.CarModel, job.CarYear, job.IssueDescription, job.EnteredAt, now,
	).Scan(&job.ID)
	if err != nil {
		return fmt.Errorf("postgres: create job: %w", translateError(err))
	}
	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

func (r *pgJobRepo) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	return r.get(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
}

func (r *pgJobRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Job, error) {
	return r.get(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgJobRepo) get(ctx context.Context, query string, id int64) (*domain.Job, error) {
	job, err := scanJob(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("postgres: get job by id: %w", err)
	}
	return job, nil
}

func (r *pgJobRepo) Update(ctx context.Context, id int64, patch *domain.JobPatch) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.CustomerName != nil {
		add("customer_name", *patch.CustomerName)
	}
	if patch.CustomerPhoneCountryCode != nil {
		add("customer_phone_country_code", *patch.CustomerPhoneCountryCode)
	}
	if patch.CustomerPhoneNumber != nil {
		add("customer_phone_number", *patch.CustomerPhoneNumber)
	}
	if patch.CarModel != nil {
		add("car_model", *patch.CarModel)
	}
	if patch.CarYear != nil {
		add("car_year", *patch.CarYear)
	}
	if patch.IssueDescription != nil {
		add("issue_description", *patch.IssueDescription)
	}
	if patch.EnteredAt != nil {
		add("entered_at", *patch.EnteredAt)
	}
	if patch.CompletedAt != nil {
		add("completed_at", *patch.CompletedAt)
	} else if patch.ClearCompletedAt {
		sets = append(sets, "completed_at = NULL")
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE jobs SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: update job: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *pgJobRepo) Complete(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE jobs SET status = $1, completed_at = $2, updated_at = $2 WHERE id = $3`
	tag, err := r.q.Exec(ctx, query, domain.JobCompleted, at, id)
	if err != nil {
		return fmt.Errorf("postgres: complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *pgJobRepo) FindOpenByCamera(ctx context.Context, cameraID, excludeJobID int64) (int64, error) {
	query := `SELECT id FROM jobs WHERE camera_id = $1 AND status <> $2 AND id <> $3 LIMIT 1`

	var id int64
	err := r.q.QueryRow(ctx, query, cameraID, domain.JobCompleted, excludeJobID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: find open job by camera: %w", err)
	}
	return id, nil
}

func (r *pgJobRepo) OpenCameraIDs(ctx context.Context, candidates []int64) (map[int64]bool, error) {
	open := make(map[int64]bool, len(candidates))
	if len(candidates) == 0 {
		return open, nil
	}

	query := `SELECT DISTINCT camera_id FROM jobs WHERE camera_id = ANY($1) AND status <> $2`
	rows, err := r.q.Query(ctx, query, candidates, domain.JobCompleted)
	if err != nil {
		return nil, fmt.Errorf("postgres: open camera ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan camera id: %w", err)
		}
		open[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: open camera ids: %w", err)
	}
	return open, nil
}

func (r *pgJobRepo) ListByBranch(ctx context.Context, branchID int64, status domain.JobStatus) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE branch_id = $1`
	args := []any{branchID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY entered_at DESC`
	return r.list(ctx, query, args...)
}

func (r *pgJobRepo) ListCompleted(ctx context.Context, branchID *int64) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1`
	args := []any{domain.JobCompleted}
	if branchID != nil {
		query += ` AND branch_id = $2`
		args = append(args, *branchID)
	}
	query += ` ORDER BY completed_at DESC`
	return r.list(ctx, query, args...)
}

func (r *pgJobRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Job, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	job := &domain.Job{}
	err := row.Scan(
		&job.ID, &job.BranchID, &job.CameraID, &job.Status, &job.CustomerName, &job.CustomerPhoneCountryCode,
		&job.CustomerPhoneNumber, &job.CarModel, &job.CarYear, &job.IssueDescription, &job.EnteredAt,
		&job.CompletedAt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}
