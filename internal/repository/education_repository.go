package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/portfolio-api/internal/model"
)

// EducationRepo stores CV education entries in the `education` table.
type EducationRepo struct{ db *sql.DB }

func NewEducationRepo(db *sql.DB) *EducationRepo { return &EducationRepo{db: db} }

const educationColumns = "id, institution, degree, field_of_study, start_date, end_date, description, created_at, updated_at"

func scanEducation(row interface{ Scan(...any) error }) (model.Education, error) {
	var e model.Education
	err := row.Scan(&e.ID, &e.Institution, &e.Degree, &e.FieldOfStudy, &e.StartDate, &e.EndDate, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *EducationRepo) List(ctx context.Context) ([]model.Education, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+educationColumns+" FROM education ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Education{}
	for rows.Next() {
		e, err := scanEducation(rows)
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

func (r *EducationRepo) GetByID(ctx context.Context, id string) (*model.Education, error) {
	e, err := scanEducation(r.db.QueryRowContext(ctx, "SELECT "+educationColumns+" FROM education WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EducationRepo) Create(ctx context.Context, e *model.Education) error {
	now := nowUTC()
	id := uuid.NewString()
	const q = `INSERT INTO education (id, institution, degree, field_of_study, start_date, end_date, description, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, id, e.Institution, e.Degree, e.FieldOfStudy, e.StartDate, e.EndDate, e.Description, now, now); err != nil {
		return err
	}
	e.ID, e.CreatedAt, e.UpdatedAt = id, now, now
	return nil
}

func (r *EducationRepo) Update(ctx context.Context, e *model.Education) error {
	now := nowUTC()
	const q = `UPDATE education
	           SET institution = ?, degree = ?, field_of_study = ?, start_date = ?, end_date = ?, description = ?, updated_at = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, e.Institution, e.Degree, e.FieldOfStudy, e.StartDate, e.EndDate, e.Description, now, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := r.db.QueryRowContext(ctx, "SELECT created_at FROM education WHERE id = ?", e.ID).Scan(&e.CreatedAt); err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

func (r *EducationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM education WHERE id = ?", id)
	return err
}
