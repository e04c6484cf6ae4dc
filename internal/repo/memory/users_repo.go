package memory

import (
	"context"
	"sync"
	"time"

	"github.com/codetier/taskhub/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo is a map-backed store with the same semantics as the
// postgres repo, used by tests and storeless dev runs.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.items {
		if u.Email == email || u.Username == username {
			return user.User{}, user.ErrDuplicate
		}
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	// Mirror the unique constraint on username.
	for otherID, other := range r.items {
		if otherID != id && other.Username == req.Username {
			return user.User{}, user.ErrDuplicate
		}
	}

	u.Username = req.Username
	u.Bio = req.Bio
	u.AvatarURL = req.AvatarURL
	u.UpdatedAt = time.Now().UTC()

	r.items[id] = u

	return u, nil
}
