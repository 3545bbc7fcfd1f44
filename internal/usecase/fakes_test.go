package usecase

import (
	"context"
	"sync"
	"time"

	"user-service/internal/domain"
	oauth2svc "user-service/internal/service/oauth2"
	"user-service/pkg/xerrors"
)

// fakeRepo is an in-memory Account Store enforcing the same atomic
// uniqueness guarantees as the real one, which is what the provisioning
// race handling relies on.
type fakeRepo struct {
	mu    sync.Mutex
	order []string
	users map[string]*domain.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*domain.User{}}
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *fakeRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return xerrors.ErrUserAlreadyExists
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return xerrors.ErrEmailAlreadyInUse
		}
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = copyUser(user)
	r.order = append(r.order, user.ID)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *fakeRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, xerrors.ErrUserNotFound
}

func (r *fakeRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	match := func(u *domain.User) bool {
		strEq := func(want *string, got *string) bool {
			if want == nil {
				return true
			}
			return got != nil && *got == *want
		}
		if filter.Email != nil && u.Email != *filter.Email {
			return false
		}
		return strEq(filter.Name, u.Name) && strEq(filter.Phone, u.Phone) && strEq(filter.Location, u.Location)
	}

	matched := []*domain.User{}
	for _, id := range r.order {
		if u, ok := r.users[id]; ok && match(u) {
			matched = append(matched, copyUser(u))
		}
	}

	if filter.Offset >= len(matched) {
		return []*domain.User{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, update *domain.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	if update.Name != nil {
		u.Name = update.Name
	}
	if update.Phone != nil {
		u.Phone = update.Phone
	}
	if update.Bio != nil {
		u.Bio = update.Bio
	}
	if update.Location != nil {
		u.Location = update.Location
	}
	u.UpdatedAt = time.Now().UTC().Add(time.Millisecond)
	return copyUser(u), nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return xerrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeRepo) Health(ctx context.Context) error { return nil }

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// fakeProducer records published events and can be told to fail.
type fakeProducer struct {
	mu     sync.Mutex
	events []*UserEvent
	err    error
}

func (p *fakeProducer) PublishUserEvent(ctx context.Context, event *UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) published() []*UserEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*UserEvent{}, p.events...)
}

// fakeVerifier trusts any assertion of the form it was seeded with.
type fakeVerifier struct {
	identity *oauth2svc.Identity
	err      error
}

func (v *fakeVerifier) Verify(ctx context.Context, assertion string) (*oauth2svc.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}
