package post

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tkamau/tunza/core/child"
)

var (
	// errors
	ErrNotFound = errors.New("post not found")
)

type (
	Repository interface {
		CreatePost(ctx context.Context, p Post) (Post, error)
		GetPostByID(ctx context.Context, id string) (Post, error)
		QueryPostsByChild(ctx context.Context, childID string) ([]Post, error)
		UpdatePost(ctx context.Context, p Post) (Post, error)
		DeletePost(ctx context.Context, id string) error
	}

	Service interface {
		Add(ctx context.Context, guardianID string, np NewPost) (Post, error)
		AllForChild(ctx context.Context, guardianID, childID string) ([]Post, error)
		Update(ctx context.Context, guardianID, postID string, up UpdatePost) (Post, error)
		Delete(ctx context.Context, guardianID, postID string) error
	}

	service struct {
		repo     Repository
		childSvc child.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, childSvc child.Service) Service {
	return &service{repo: repo, childSvc: childSvc}
}

func (svc *service) Add(ctx context.Context, guardianID string, np NewPost) (Post, error) {
	// posting is only allowed on the guardian's own child
	if _, err := svc.childSvc.Get(ctx, guardianID, np.ChildID); err != nil {
		if err == child.ErrNotFound {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}

	now := time.Now().UTC()
	p := Post{
		ID:         uuid.New().String(),
		ChildID:    np.ChildID,
		GuardianID: guardianID,
		Body:       np.Body,
		ImageURL:   np.ImageURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreatePost(ctx, p)
}

func (svc *service) AllForChild(ctx context.Context, guardianID, childID string) ([]Post, error) {
	if _, err := svc.childSvc.Get(ctx, guardianID, childID); err != nil {
		if err == child.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return svc.repo.QueryPostsByChild(ctx, childID)
}

// getOwned hides other guardians' posts behind ErrNotFound.
func (svc *service) getOwned(ctx context.Context, guardianID, postID string) (Post, error) {
	p, err := svc.repo.GetPostByID(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if p.GuardianID != guardianID {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (svc *service) Update(ctx context.Context, guardianID, postID string, up UpdatePost) (Post, error) {
	p, err := svc.getOwned(ctx, guardianID, postID)
	if err != nil {
		return Post{}, err
	}
	p.Body = up.Body
	if up.ImageURL != "" {
		p.ImageURL = up.ImageURL
	}
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePost(ctx, p)
}

func (svc *service) Delete(ctx context.Context, guardianID, postID string) error {
	if _, err := svc.getOwned(ctx, guardianID, postID); err != nil {
		return err
	}
	return svc.repo.DeletePost(ctx, postID)
}
