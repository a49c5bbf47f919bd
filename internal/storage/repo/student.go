package repo

import (
	"context"
	"fmt"

	"github.com/kena741/zuluskills-admin/internal/cache"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage"
)

// StudentRepo reads and edits profiles.
type StudentRepo struct {
	store storage.RowStore
	cache *cache.Collection[models.Profile]
}

func NewStudentRepo(store storage.RowStore) *StudentRepo {
	return &StudentRepo{store: store, cache: cache.New[models.Profile]()}
}

// FetchAll returns every profile, newest first.
func (r *StudentRepo) FetchAll(ctx context.Context) ([]models.Profile, error) {
	profiles, err := selectAll[models.Profile](ctx, r.store, storage.Query{
		Table: storage.TableProfiles,
		Order: []storage.Order{storage.Desc("created_at")},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch students: %w", err)
	}
	r.cache.Merge(profiles...)
	return profiles, nil
}

func (r *StudentRepo) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, storage.TableProfiles)
	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return n, nil
}

func (r *StudentRepo) FetchByID(ctx context.Context, id models.ID) (*models.Profile, error) {
	p, err := selectOne[models.Profile](ctx, r.store, storage.TableProfiles, byID(id))
	if err != nil {
		return nil, fmt.Errorf("fetch student %s: %w", id, err)
	}
	if p != nil {
		r.cache.Merge(*p)
	}
	return p, nil
}

func (r *StudentRepo) Create(ctx context.Context, id models.ID, email string) (*models.Profile, error) {
	row, err := r.store.Insert(ctx, storage.TableProfiles, storage.Values{"id": id.Key(), "email": email})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	p, err := storage.DecodeOne[models.Profile](row)
	if err != nil {
		return nil, err
	}
	r.cache.Merge(p)
	return &p, nil
}

func (r *StudentRepo) UpdateName(ctx context.Context, id models.ID, firstName, lastName string) (*models.Profile, error) {
	return r.update(ctx, id, storage.Values{"first_name": firstName, "last_name": lastName})
}

func (r *StudentRepo) UpdateAvatar(ctx context.Context, id models.ID, avatar string) (*models.Profile, error) {
	return r.update(ctx, id, storage.Values{"avatar_url": avatar})
}

func (r *StudentRepo) update(ctx context.Context, id models.ID, values storage.Values) (*models.Profile, error) {
	row, err := r.store.Update(ctx, storage.TableProfiles, values, byID(id))
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", id, err)
	}
	p, err := storage.DecodeOne[models.Profile](row)
	if err != nil {
		return nil, err
	}
	r.cache.Merge(p)
	return &p, nil
}
