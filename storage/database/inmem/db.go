// Package inmemdb provides map-backed repositories for tests and local runs
// without postgres.
package inmemdb

import (
	"sync"

	"github.com/tkamau/tunza/core/account"
	"github.com/tkamau/tunza/core/child"
	"github.com/tkamau/tunza/core/message"
	"github.com/tkamau/tunza/core/post"
)

type DB struct {
	mutex sync.RWMutex

	accounts      map[string]*account.Account
	children      map[string]*child.Child
	milestones    map[string]*child.Milestone
	posts         map[string]*post.Post
	messages      map[string]*message.Message
	notifications map[string]*message.Notification
}

func NewDB() *DB {
	return &DB{
		accounts:      make(map[string]*account.Account),
		children:      make(map[string]*child.Child),
		milestones:    make(map[string]*child.Milestone),
		posts:         make(map[string]*post.Post),
		messages:      make(map[string]*message.Message),
		notifications: make(map[string]*message.Notification),
	}
}
