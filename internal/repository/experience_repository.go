package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/portfolio-api/internal/model"
)

// ExperienceRepo stores CV work experience in the `experience` table.
type ExperienceRepo struct{ db *sql.DB }

func NewExperienceRepo(db *sql.DB) *ExperienceRepo { return &ExperienceRepo{db: db} }

const experienceColumns = "id, company, position, start_date, end_date, description, created_at, updated_at"

func scanExperience(row interface{ Scan(...any) error }) (model.Experience, error) {
	var e model.Experience
	err := row.Scan(&e.ID, &e.Company, &e.Position, &e.StartDate, &e.EndDate, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *ExperienceRepo) List(ctx context.Context) ([]model.Experience, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+experienceColumns+" FROM experience ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Experience{}
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ExperienceRepo) GetByID(ctx context.Context, id string) (*model.Experience, error) {
	e, err := scanExperience(r.db.QueryRowContext(ctx, "SELECT "+experienceColumns+" FROM experience WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExperienceRepo) Create(ctx context.Context, e *model.Experience) error {
	now := nowUTC()
	id := uuid.NewString()
	const q = `INSERT INTO experience (id, company, position, start_date, end_date, description, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, id, e.Company, e.Position, e.StartDate, e.EndDate, e.Description, now, now); err != nil {
		return err
	}
	e.ID, e.CreatedAt, e.UpdatedAt = id, now, now
	return nil
}

func (r *ExperienceRepo) Update(ctx context.Context, e *model.Experience) error {
	now := nowUTC()
	const q = `UPDATE experience
	           SET company = ?, position = ?, start_date = ?, end_date = ?, description = ?, updated_at = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, e.Company, e.Position, e.StartDate, e.EndDate, e.Description, now, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := r.db.QueryRowContext(ctx, "SELECT created_at FROM experience WHERE id = ?", e.ID).Scan(&e.CreatedAt); err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

// Delete removes the entry; deleting an id that never existed still succeeds.
func (r *ExperienceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM experience WHERE id = ?", id)
	return err
}
