package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkamau/tunza/core/child"
)

type childRepository struct {
	db *sqlx.DB
}

var _ child.Repository = (*childRepository)(nil) // interface compliance check

func NewChildRepository(db *sqlx.DB) *childRepository {
	return &childRepository{db: db}
}

type childRow struct {
	ID         string         `db:"id"`
	GuardianID string         `db:"guardian_id"`
	FirstName  string         `db:"first_name"`
	LastName   null.String    `db:"last_name"`
	About      null.String    `db:"about"`
	Age        null.Int       `db:"age"`
	Interests  pq.StringArray `db:"interests"`
	AvatarURL  null.String    `db:"avatar_url"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type milestoneRow struct {
	ID         string      `db:"id"`
	ChildID    string      `db:"child_id"`
	Title      string      `db:"title"`
	Note       null.String `db:"note"`
	AchievedAt time.Time   `db:"achieved_at"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (repo childRepository) row(c child.Child) childRow {
	return childRow{
		ID:         c.ID,
		GuardianID: c.GuardianID,
		FirstName:  c.FirstName,
		LastName:   null.NewString(c.LastName, c.LastName != ""),
		About:      null.NewString(c.About, c.About != ""),
		Age:        null.NewInt(c.Age, c.Age > 0),
		Interests:  pq.StringArray(c.Interests),
		AvatarURL:  null.NewString(c.AvatarURL, c.AvatarURL != ""),
		CreatedAt:  c.CreatedAt.UTC(),
		UpdatedAt:  c.UpdatedAt.UTC(),
	}
}

func (repo childRepository) unrow(row childRow) child.Child {
	return child.Child{
		ID:         row.ID,
		GuardianID: row.GuardianID,
		FirstName:  row.FirstName,
		LastName:   row.LastName.String,
		About:      row.About.String,
		Age:        row.Age.Int,
		Interests:  []string(row.Interests),
		AvatarURL:  row.AvatarURL.String,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func (repo childRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return child.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo childRepository) CreateChild(ctx context.Context, c child.Child) (child.Child, error) {
	q := `
INSERT INTO child (id, guardian_id, first_name, last_name, about, age, interests, avatar_url, created_at, updated_at)
VALUES (:id, :guardian_id, :first_name, :last_name, :about, :age, :interests, :avatar_url, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.row(c)); err != nil {
		return child.Child{}, errors.Wrap(err, "inserting child")
	}
	return c, nil
}

func (repo childRepository) GetChildByID(ctx context.Context, id string) (child.Child, error) {
	var row childRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM child WHERE id = $1`, id); err != nil {
		return child.Child{}, repo.trapNoRowsErr(err, "getting child by id")
	}
	return repo.unrow(row), nil
}

func (repo childRepository) QueryChildrenByGuardian(ctx context.Context, guardianID string) ([]child.Child, error) {
	var rows []childRow
	q := `SELECT * FROM child WHERE guardian_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, guardianID); err != nil {
		return nil, errors.Wrap(err, "querying children")
	}
	children := make([]child.Child, 0, len(rows))
	for _, row := range rows {
		children = append(children, repo.unrow(row))
	}
	return children, nil
}

func (repo childRepository) UpdateChild(ctx context.Context, c child.Child) (child.Child, error) {
	q := `
UPDATE child SET
    first_name = :first_name, last_name = :last_name, about = :about, age = :age,
    interests = :interests, avatar_url = :avatar_url, updated_at = :updated_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, repo.row(c))
	if err != nil {
		return child.Child{}, errors.Wrap(err, "updating child")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return child.Child{}, child.ErrNotFound
	}
	return c, nil
}

func (repo childRepository) CreateMilestone(ctx context.Context, m child.Milestone) (child.Milestone, error) {
	q := `
INSERT INTO milestone (id, child_id, title, note, achieved_at, created_at)
VALUES (:id, :child_id, :title, :note, :achieved_at, :created_at)`
	row := milestoneRow{
		ID:         m.ID,
		ChildID:    m.ChildID,
		Title:      m.Title,
		Note:       null.NewString(m.Note, m.Note != ""),
		AchievedAt: m.AchievedAt.UTC(),
		CreatedAt:  m.CreatedAt.UTC(),
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return child.Milestone{}, errors.Wrap(err, "inserting milestone")
	}
	return m, nil
}

func (repo childRepository) QueryMilestonesByChild(ctx context.Context, childID string) ([]child.Milestone, error) {
	var rows []milestoneRow
	q := `SELECT * FROM milestone WHERE child_id = $1 ORDER BY achieved_at`
	if err := repo.db.SelectContext(ctx, &rows, q, childID); err != nil {
		return nil, errors.Wrap(err, "querying milestones")
	}
	milestones := make([]child.Milestone, 0, len(rows))
	for _, row := range rows {
		milestones = append(milestones, child.Milestone{
			ID:         row.ID,
			ChildID:    row.ChildID,
			Title:      row.Title,
			Note:       row.Note.String,
			AchievedAt: row.AchievedAt,
			CreatedAt:  row.CreatedAt,
		})
	}
	return milestones, nil
}
