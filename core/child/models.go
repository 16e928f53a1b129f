package child

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tkamau/tunza/core"
)

type Child struct {
	ID         string    `json:"id"`
	GuardianID string    `json:"guardian_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name,omitempty"`
	About      string    `json:"about,omitempty"`
	Age        int       `json:"age,omitempty"`
	Interests  []string  `json:"interests,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

type Milestone struct {
	ID         string    `json:"id"`
	ChildID    string    `json:"child_id"`
	Title      string    `json:"title"`
	Note       string    `json:"note,omitempty"`
	AchievedAt time.Time `json:"achieved_at"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// NewChild contains information needed to create a new Child profile.
type NewChild struct {
	FirstName string   `json:"firstName" validate:"required"`
	LastName  string   `json:"lastName"`
	Age       int      `json:"age" validate:"omitempty,gte=0,lte=17"`
	Interests []string `json:"interests" validate:"omitempty,dive,required"`
	About     string   `json:"about" validate:"omitempty,max=2000"`
	AvatarURL string   `json:"avatarUrl" validate:"omitempty,url"`
}

func (nc *NewChild) Validate(validate *validator.Validate) error {
	nc.FirstName = core.CleanString(nc.FirstName)
	nc.LastName = core.CleanString(nc.LastName)
	return validate.Struct(nc)
}

// UpdateAbout carries the PATCH body for a child's about section.
type UpdateAbout struct {
	About string `json:"about" validate:"required,max=2000"`
}

func (ua *UpdateAbout) Validate(validate *validator.Validate) error {
	ua.About = core.CleanString(ua.About)
	return validate.Struct(ua)
}

type NewMilestone struct {
	ChildID    string    `json:"childId" validate:"required"`
	Title      string    `json:"title" validate:"required"`
	Note       string    `json:"note" validate:"omitempty,max=2000"`
	AchievedAt time.Time `json:"achievedAt"`
}

func (nm *NewMilestone) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	return validate.Struct(nm)
}
