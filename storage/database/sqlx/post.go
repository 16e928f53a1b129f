package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkamau/tunza/core/post"
)

type postRepository struct {
	db *sqlx.DB
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *sqlx.DB) *postRepository {
	return &postRepository{db: db}
}

type postRow struct {
	ID         string      `db:"id"`
	ChildID    string      `db:"child_id"`
	GuardianID string      `db:"guardian_id"`
	Body       string      `db:"body"`
	ImageURL   null.String `db:"image_url"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func (repo postRepository) row(p post.Post) postRow {
	return postRow{
		ID:         p.ID,
		ChildID:    p.ChildID,
		GuardianID: p.GuardianID,
		Body:       p.Body,
		ImageURL:   null.NewString(p.ImageURL, p.ImageURL != ""),
		CreatedAt:  p.CreatedAt.UTC(),
		UpdatedAt:  p.UpdatedAt.UTC(),
	}
}

func (repo postRepository) unrow(row postRow) post.Post {
	return post.Post{
		ID:         row.ID,
		ChildID:    row.ChildID,
		GuardianID: row.GuardianID,
		Body:       row.Body,
		ImageURL:   row.ImageURL.String,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func (repo postRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return post.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo postRepository) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	q := `
INSERT INTO post (id, child_id, guardian_id, body, image_url, created_at, updated_at)
VALUES (:id, :child_id, :guardian_id, :body, :image_url, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.row(p)); err != nil {
		return post.Post{}, errors.Wrap(err, "inserting post")
	}
	return p, nil
}

func (repo postRepository) GetPostByID(ctx context.Context, id string) (post.Post, error) {
	var row postRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM post WHERE id = $1`, id); err != nil {
		return post.Post{}, repo.trapNoRowsErr(err, "getting post by id")
	}
	return repo.unrow(row), nil
}

func (repo postRepository) QueryPostsByChild(ctx context.Context, childID string) ([]post.Post, error) {
	var rows []postRow
	q := `SELECT * FROM post WHERE child_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, childID); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	posts := make([]post.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, repo.unrow(row))
	}
	return posts, nil
}

func (repo postRepository) UpdatePost(ctx context.Context, p post.Post) (post.Post, error) {
	q := `UPDATE post SET body = :body, image_url = :image_url, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, repo.row(p))
	if err != nil {
		return post.Post{}, errors.Wrap(err, "updating post")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return post.Post{}, post.ErrNotFound
	}
	return p, nil
}

func (repo postRepository) DeletePost(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM post WHERE id = $1`, id)
	return errors.Wrap(err, "deleting post")
}
