package inmemdb

import (
	"context"
	"sort"

	"github.com/tkamau/tunza/core/message"
)

type messageRepository struct {
	db *DB
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(_ context.Context, m message.Message) (message.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.messages[m.ID] = &m
	return m, nil
}

func (repo *messageRepository) QueryConversation(_ context.Context, accountID, otherID string) ([]message.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	msgs := make([]message.Message, 0)
	for _, m := range repo.db.messages {
		if (m.SenderID == accountID && m.RecipientID == otherID) ||
			(m.SenderID == otherID && m.RecipientID == accountID) {
			msgs = append(msgs, *m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (repo *messageRepository) MarkConversationRead(_ context.Context, recipientID, senderID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, m := range repo.db.messages {
		if m.RecipientID == recipientID && m.SenderID == senderID {
			m.Read = true
		}
	}
	return nil
}

func (repo *messageRepository) CreateNotification(_ context.Context, n message.Notification) (message.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.notifications[n.ID] = &n
	return n, nil
}

func (repo *messageRepository) QueryNotificationsByAccount(_ context.Context, accountID string) ([]message.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	notifs := make([]message.Notification, 0)
	for _, n := range repo.db.notifications {
		if n.AccountID == accountID {
			notifs = append(notifs, *n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func (repo *messageRepository) GetNotificationByID(_ context.Context, id string) (message.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return *n, nil
	}
	return message.Notification{}, message.ErrNotFound
}

func (repo *messageRepository) UpdateNotification(_ context.Context, n message.Notification) (message.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.notifications[n.ID]; !ok {
		return message.Notification{}, message.ErrNotFound
	}
	repo.db.notifications[n.ID] = &n
	return n, nil
}
