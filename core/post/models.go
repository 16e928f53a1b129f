package post

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tkamau/tunza/core"
)

// Post is a social update a guardian publishes on a child's timeline.
type Post struct {
	ID         string    `json:"id"`
	ChildID    string    `json:"child_id"`
	GuardianID string    `json:"guardian_id"`
	Body       string    `json:"body"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

type NewPost struct {
	ChildID  string `json:"childId" validate:"required"`
	Body     string `json:"body" validate:"required,max=5000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Body = core.CleanString(np.Body)
	return validate.Struct(np)
}

type UpdatePost struct {
	Body     string `json:"body" validate:"required,max=5000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

func (up *UpdatePost) Validate(validate *validator.Validate) error {
	up.Body = core.CleanString(up.Body)
	return validate.Struct(up)
}
