package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tkamau/tunza/core/account"
)

var (
	// errors
	ErrNotFound          = errors.New("notification not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfMessage       = errors.New("cannot message yourself")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, m Message) (Message, error)
		// QueryConversation returns all messages between the two accounts,
		// oldest first.
		QueryConversation(ctx context.Context, accountID, otherID string) ([]Message, error)
		MarkConversationRead(ctx context.Context, recipientID, senderID string) error
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		QueryNotificationsByAccount(ctx context.Context, accountID string) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		UpdateNotification(ctx context.Context, n Notification) (Notification, error)
	}

	Service interface {
		Send(ctx context.Context, senderID string, nm NewMessage) (Message, error)
		// Conversation returns the thread with the other account, oldest
		// first, and marks the caller's unread messages in it as read.
		Conversation(ctx context.Context, accountID, otherID string) ([]Message, error)
		Notifications(ctx context.Context, accountID string) ([]Notification, error)
		MarkNotificationRead(ctx context.Context, accountID, notificationID string) (Notification, error)
	}

	service struct {
		repo    Repository
		acctSvc account.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, acctSvc account.Service) Service {
	return &service{repo: repo, acctSvc: acctSvc}
}

func (svc *service) Send(ctx context.Context, senderID string, nm NewMessage) (Message, error) {
	if nm.RecipientID == senderID {
		return Message{}, ErrSelfMessage
	}
	if _, err := svc.acctSvc.GetByID(ctx, nm.RecipientID); err != nil {
		if err == account.ErrNotFound {
			return Message{}, ErrRecipientNotFound
		}
		return Message{}, err
	}

	m := Message{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: nm.RecipientID,
		Body:        nm.Body,
		CreatedAt:   time.Now().UTC(),
	}
	m, err := svc.repo.CreateMessage(ctx, m)
	if err != nil {
		return Message{}, err
	}

	// a send fans out a notification for the recipient
	_, err = svc.repo.CreateNotification(ctx, Notification{
		ID:        uuid.New().String(),
		AccountID: nm.RecipientID,
		Kind:      KindMessage,
		Payload:   fmt.Sprintf(`{"message_id":%q,"sender_id":%q}`, m.ID, m.SenderID),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

func (svc *service) Conversation(ctx context.Context, accountID, otherID string) ([]Message, error) {
	msgs, err := svc.repo.QueryConversation(ctx, accountID, otherID)
	if err != nil {
		return nil, err
	}
	if err = svc.repo.MarkConversationRead(ctx, accountID, otherID); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (svc *service) Notifications(ctx context.Context, accountID string) ([]Notification, error) {
	return svc.repo.QueryNotificationsByAccount(ctx, accountID)
}

func (svc *service) MarkNotificationRead(ctx context.Context, accountID, notificationID string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, notificationID)
	if err != nil {
		return Notification{}, err
	}
	if n.AccountID != accountID {
		return Notification{}, ErrNotFound
	}
	n.Read = true
	return svc.repo.UpdateNotification(ctx, n)
}
