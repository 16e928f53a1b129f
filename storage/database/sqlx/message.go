package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkamau/tunza/core/message"
)

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

type messageRow struct {
	ID          string    `db:"id"`
	SenderID    string    `db:"sender_id"`
	RecipientID string    `db:"recipient_id"`
	Body        string    `db:"body"`
	Read        bool      `db:"read"`
	CreatedAt   time.Time `db:"created_at"`
}

type notificationRow struct {
	ID        string      `db:"id"`
	AccountID string      `db:"account_id"`
	Kind      string      `db:"kind"`
	Payload   null.String `db:"payload"`
	Read      bool        `db:"read"`
	CreatedAt time.Time   `db:"created_at"`
}

func (repo messageRepository) unrow(row messageRow) message.Message {
	return message.Message(row)
}

func (repo messageRepository) unrowNotification(row notificationRow) message.Notification {
	return message.Notification{
		ID:        row.ID,
		AccountID: row.AccountID,
		Kind:      row.Kind,
		Payload:   row.Payload.String,
		Read:      row.Read,
		CreatedAt: row.CreatedAt,
	}
}

func (repo messageRepository) CreateMessage(ctx context.Context, m message.Message) (message.Message, error) {
	q := `
INSERT INTO message (id, sender_id, recipient_id, body, read, created_at)
VALUES (:id, :sender_id, :recipient_id, :body, :read, :created_at)`
	row := messageRow{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		Read:        m.Read,
		CreatedAt:   m.CreatedAt.UTC(),
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo messageRepository) QueryConversation(ctx context.Context, accountID, otherID string) ([]message.Message, error) {
	var rows []messageRow
	q := `
SELECT * FROM message
WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, accountID, otherID); err != nil {
		return nil, errors.Wrap(err, "querying conversation")
	}
	msgs := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, repo.unrow(row))
	}
	return msgs, nil
}

func (repo messageRepository) MarkConversationRead(ctx context.Context, recipientID, senderID string) error {
	q := `UPDATE message SET read = TRUE WHERE recipient_id = $1 AND sender_id = $2 AND NOT read`
	_, err := repo.db.ExecContext(ctx, q, recipientID, senderID)
	return errors.Wrap(err, "marking conversation read")
}

func (repo messageRepository) CreateNotification(ctx context.Context, n message.Notification) (message.Notification, error) {
	q := `
INSERT INTO notification (id, account_id, kind, payload, read, created_at)
VALUES (:id, :account_id, :kind, :payload, :read, :created_at)`
	row := notificationRow{
		ID:        n.ID,
		AccountID: n.AccountID,
		Kind:      n.Kind,
		Payload:   null.NewString(n.Payload, n.Payload != ""),
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC(),
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return message.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo messageRepository) QueryNotificationsByAccount(ctx context.Context, accountID string) ([]message.Notification, error) {
	var rows []notificationRow
	q := `SELECT * FROM notification WHERE account_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, accountID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	notifs := make([]message.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, repo.unrowNotification(row))
	}
	return notifs, nil
}

func (repo messageRepository) GetNotificationByID(ctx context.Context, id string) (message.Notification, error) {
	var row notificationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM notification WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return message.Notification{}, message.ErrNotFound
		}
		return message.Notification{}, errors.Wrap(err, "getting notification by id")
	}
	return repo.unrowNotification(row), nil
}

func (repo messageRepository) UpdateNotification(ctx context.Context, n message.Notification) (message.Notification, error) {
	q := `UPDATE notification SET read = $1 WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, q, n.Read, n.ID)
	if err != nil {
		return message.Notification{}, errors.Wrap(err, "updating notification")
	}
	if num, err := res.RowsAffected(); err == nil && num == 0 {
		return message.Notification{}, message.ErrNotFound
	}
	return n, nil
}
