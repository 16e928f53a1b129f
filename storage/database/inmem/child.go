package inmemdb

import (
	"context"
	"sort"

	"github.com/tkamau/tunza/core/child"
)

type childRepository struct {
	db *DB
}

var _ child.Repository = (*childRepository)(nil)

func NewChildRepository(db *DB) *childRepository {
	return &childRepository{db: db}
}

func (repo *childRepository) CreateChild(_ context.Context, c child.Child) (child.Child, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.children[c.ID] = &c
	return c, nil
}

func (repo *childRepository) GetChildByID(_ context.Context, id string) (child.Child, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.children[id]; ok {
		return *c, nil
	}
	return child.Child{}, child.ErrNotFound
}

func (repo *childRepository) QueryChildrenByGuardian(_ context.Context, guardianID string) ([]child.Child, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	children := make([]child.Child, 0)
	for _, c := range repo.db.children {
		if c.GuardianID == guardianID {
			children = append(children, *c)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].CreatedAt.Before(children[j].CreatedAt) })
	return children, nil
}

func (repo *childRepository) UpdateChild(_ context.Context, c child.Child) (child.Child, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.children[c.ID]; !ok {
		return child.Child{}, child.ErrNotFound
	}
	repo.db.children[c.ID] = &c
	return c, nil
}

func (repo *childRepository) CreateMilestone(_ context.Context, m child.Milestone) (child.Milestone, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.milestones[m.ID] = &m
	return m, nil
}

func (repo *childRepository) QueryMilestonesByChild(_ context.Context, childID string) ([]child.Milestone, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	milestones := make([]child.Milestone, 0)
	for _, m := range repo.db.milestones {
		if m.ChildID == childID {
			milestones = append(milestones, *m)
		}
	}
	sort.Slice(milestones, func(i, j int) bool { return milestones[i].AchievedAt.Before(milestones[j].AchievedAt) })
	return milestones, nil
}
