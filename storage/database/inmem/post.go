package inmemdb

import (
	"context"
	"sort"

	"github.com/tkamau/tunza/core/post"
)

type postRepository struct {
	db *DB
}

var _ post.Repository = (*postRepository)(nil)

func NewPostRepository(db *DB) *postRepository {
	return &postRepository{db: db}
}

func (repo *postRepository) CreatePost(_ context.Context, p post.Post) (post.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.posts[p.ID] = &p
	return p, nil
}

func (repo *postRepository) GetPostByID(_ context.Context, id string) (post.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.posts[id]; ok {
		return *p, nil
	}
	return post.Post{}, post.ErrNotFound
}

func (repo *postRepository) QueryPostsByChild(_ context.Context, childID string) ([]post.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	posts := make([]post.Post, 0)
	for _, p := range repo.db.posts {
		if p.ChildID == childID {
			posts = append(posts, *p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (repo *postRepository) UpdatePost(_ context.Context, p post.Post) (post.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.posts[p.ID]; !ok {
		return post.Post{}, post.ErrNotFound
	}
	repo.db.posts[p.ID] = &p
	return p, nil
}

func (repo *postRepository) DeletePost(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.posts, id)
	return nil
}
