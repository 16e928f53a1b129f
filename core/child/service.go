package child

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// errors
	ErrNotFound = errors.New("child not found")
)

type (
	Repository interface {
		CreateChild(ctx context.Context, c Child) (Child, error)
		GetChildByID(ctx context.Context, id string) (Child, error)
		QueryChildrenByGuardian(ctx context.Context, guardianID string) ([]Child, error)
		UpdateChild(ctx context.Context, c Child) (Child, error)
		CreateMilestone(ctx context.Context, m Milestone) (Milestone, error)
		QueryMilestonesByChild(ctx context.Context, childID string) ([]Milestone, error)
	}

	Service interface {
		Add(ctx context.Context, guardianID string, nc NewChild) (Child, error)
		Get(ctx context.Context, guardianID, childID string) (Child, error)
		ChildrenOf(ctx context.Context, guardianID string) ([]Child, error)
		UpdateAbout(ctx context.Context, guardianID, childID string, ua UpdateAbout) (Child, error)
		AddMilestone(ctx context.Context, guardianID string, nm NewMilestone) (Milestone, error)
		Milestones(ctx context.Context, guardianID, childID string) ([]Milestone, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Add always mints a fresh identifier; a guardian adding a second child can
// never inherit the previous child's ID.
func (svc *service) Add(ctx context.Context, guardianID string, nc NewChild) (Child, error) {
	now := time.Now().UTC()
	c := Child{
		ID:         uuid.New().String(),
		GuardianID: guardianID,
		FirstName:  nc.FirstName,
		LastName:   nc.LastName,
		About:      nc.About,
		Age:        nc.Age,
		Interests:  nc.Interests,
		AvatarURL:  nc.AvatarURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateChild(ctx, c)
}

// getOwned loads a child and hides other guardians' children behind ErrNotFound.
func (svc *service) getOwned(ctx context.Context, guardianID, childID string) (Child, error) {
	c, err := svc.repo.GetChildByID(ctx, childID)
	if err != nil {
		return Child{}, err
	}
	if c.GuardianID != guardianID {
		return Child{}, ErrNotFound
	}
	return c, nil
}

func (svc *service) Get(ctx context.Context, guardianID, childID string) (Child, error) {
	return svc.getOwned(ctx, guardianID, childID)
}

func (svc *service) ChildrenOf(ctx context.Context, guardianID string) ([]Child, error) {
	return svc.repo.QueryChildrenByGuardian(ctx, guardianID)
}

func (svc *service) UpdateAbout(ctx context.Context, guardianID, childID string, ua UpdateAbout) (Child, error) {
	c, err := svc.getOwned(ctx, guardianID, childID)
	if err != nil {
		return Child{}, err
	}
	c.About = ua.About
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateChild(ctx, c)
}

func (svc *service) AddMilestone(ctx context.Context, guardianID string, nm NewMilestone) (Milestone, error) {
	if _, err := svc.getOwned(ctx, guardianID, nm.ChildID); err != nil {
		return Milestone{}, err
	}

	achievedAt := nm.AchievedAt
	if achievedAt.IsZero() {
		achievedAt = time.Now().UTC()
	}
	m := Milestone{
		ID:         uuid.New().String(),
		ChildID:    nm.ChildID,
		Title:      nm.Title,
		Note:       nm.Note,
		AchievedAt: achievedAt,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateMilestone(ctx, m)
}

func (svc *service) Milestones(ctx context.Context, guardianID, childID string) ([]Milestone, error) {
	if _, err := svc.getOwned(ctx, guardianID, childID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMilestonesByChild(ctx, childID)
}
