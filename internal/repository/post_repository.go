package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/portfolio-api/internal/model"
)

// PostRepo stores blog posts in the `posts` table. Tags are kept in a JSON column.
type PostRepo struct{ db *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

const postColumns = "id, title, content, author, tags, image_url, created_at, updated_at"

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var (
		p    model.Post
		tags []byte
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &tags, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Post{}, err
	}
	p.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return model.Post{}, fmt.Errorf("decode tags of post %s: %w", p.ID, err)
		}
	}
	return p, nil
}

// List returns every post, newest first.
func (r *PostRepo) List(ctx context.Context) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns ErrNotFound when no post has the id.
func (r *PostRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) Create(ctx context.Context, p *model.Post) error {
	tags, err := json.Marshal(nonNil(p.Tags))
	if err != nil {
		return err
	}
	now := nowUTC()
	id := uuid.NewString()
	const q = `INSERT INTO posts (id, title, content, author, tags, image_url, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, id, p.Title, p.Content, p.Author, tags, p.ImageURL, now, now); err != nil {
		return err
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
	return nil
}

func (r *PostRepo) Update(ctx context.Context, p *model.Post) error {
	tags, err := json.Marshal(nonNil(p.Tags))
	if err != nil {
		return err
	}
	now := nowUTC()
	const q = `UPDATE posts
	           SET title = ?, content = ?, author = ?, tags = ?, image_url = ?, updated_at = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.Title, p.Content, p.Author, tags, p.ImageURL, now, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := r.db.QueryRowContext(ctx, "SELECT created_at FROM posts WHERE id = ?", p.ID).Scan(&p.CreatedAt); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

// Delete removes the post; a missing id is not an error.
func (r *PostRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
