package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codetier/taskhub/internal/domain/user"
	"github.com/codetier/taskhub/internal/http/handlers"
	"github.com/codetier/taskhub/internal/http/middlewares"
	"github.com/codetier/taskhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake implementations of the handler-owned interfaces

type fakeUserStore struct {
	createFn     func(ctx context.Context, username, email, passwordHash string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	getByIDFn    func(ctx context.Context, id string) (user.User, error)
	updateFn     func(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, username, email, passwordHash)
	}

	return user.User{}, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}

	return user.User{}, user.ErrNotFound
}

type fakeIssuer struct {
	issueFn func(userID string) (string, error)
}

func (f *fakeIssuer) GenerateToken(userID string) (string, error) {
	if f.issueFn != nil {
		return f.issueFn(userID)
	}

	return "fake-token", nil
}

// small helper which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

// setupRouterAs mounts a handler behind a pre-set authenticated identity.
func setupRouterAs(userID, method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(c *gin.Context) {
		middlewares.SetUserID(c, userID)
	}, h)

	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeUserStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"username":"alice","email":"a@x.com","password":"secret1"}`,
			storeSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
					if passwordHash == "secret1" {
						return user.User{}, errors.New("plaintext password reached the store")
					}
					return user.User{
						ID:       uuid.NewString(),
						Username: username,
						Email:    email,
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "duplicate_user",
			body: `{"username":"alice","email":"a@x.com","password":"secret1"}`,
			storeSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
					return user.User{}, user.ErrDuplicate
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "empty_password",
			body:           `{"username":"alice","email":"a@x.com","password":""}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_email",
			body:           `{"username":"alice","password":"secret1"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			body: `{"username":"alice","email":"a@x.com","password":"secret1"}`,
			storeSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewAuthHandler(store, &fakeIssuer{})

			r := setupRouter(http.MethodPost, "/auth/register", h.Register)

			w := doJSON(r, http.MethodPost, "/auth/register", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			// registration never hands out a token
			if tt.wantStatusCode == http.StatusOK && strings.Contains(w.Body.String(), "token") {
				t.Fatalf("register response must not include a token, body=%s", w.Body.String())
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("secret1")

	if err != nil {
		t.Fatalf("failed to hash fixture password: %v", err)
	}

	alice := user.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: hash,
		Bio:          "hi",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeUserStore)
		wantStatusCode int
		wantToken      bool
	}{
		{
			name: "success",
			body: `{"email":"a@x.com","password":"secret1"}`,
			storeSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return alice, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantToken:      true,
		},
		{
			name: "unknown_email",
			body: `{"email":"nobody@x.com","password":"secret1"}`,
			storeSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "wrong_password",
			body: `{"email":"a@x.com","password":"wrong"}`,
			storeSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return alice, nil
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "malformed_email",
			body:           `{"email":"not-an-email","password":"secret1"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			issued := false

			issuer := &fakeIssuer{
				issueFn: func(userID string) (string, error) {
					issued = true
					if userID != alice.ID {
						return "", errors.New("token issued for wrong user")
					}
					return "token-for-" + userID, nil
				},
			}

			h := handlers.NewAuthHandler(store, issuer)

			r := setupRouter(http.MethodPost, "/auth/login", h.Login)

			w := doJSON(r, http.MethodPost, "/auth/login", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if issued != tt.wantToken {
				t.Fatalf("token issued=%v, want %v", issued, tt.wantToken)
			}

			if !tt.wantToken {
				return
			}

			var resp struct {
				Token string       `json:"token"`
				User  user.Profile `json:"user"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v body=%s", err, w.Body.String())
			}

			if resp.Token == "" {
				t.Fatalf("expected a token in the login response")
			}

			if resp.User.Email != alice.Email || resp.User.Username != alice.Username {
				t.Fatalf("unexpected user projection: %+v", resp.User)
			}

			// the password hash must never leave the server
			if strings.Contains(w.Body.String(), hash) {
				t.Fatalf("login response leaked the password hash")
			}
		})
	}
}

func TestProfileHandler(t *testing.T) {
	alice := user.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Bio:          "hi",
		AvatarURL:    "https://img.example/a.png",
	}

	tests := []struct {
		name           string
		storeSetup     func(*fakeUserStore)
		wantStatusCode int
	}{
		{
			name: "success",
			storeSetup: func(f *fakeUserStore) {
				f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
					if id != alice.ID {
						return user.User{}, user.ErrNotFound
					}
					return alice, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "deleted_out_of_band",
			storeSetup: func(f *fakeUserStore) {
				f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewAuthHandler(store, &fakeIssuer{})

			r := setupRouterAs(alice.ID, http.MethodGet, "/auth/profile", h.Profile)

			w := doJSON(r, http.MethodGet, "/auth/profile", "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK && strings.Contains(w.Body.String(), alice.PasswordHash) {
				t.Fatalf("profile response leaked the password hash")
			}
		})
	}
}

func TestUpdateProfileHandler(t *testing.T) {
	aliceID := uuid.NewString()

	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeUserStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"username":"alice2","bio":"new bio","avatarUrl":"https://img.example/b.png"}`,
			storeSetup: func(f *fakeUserStore) {
				f.updateFn = func(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
					return user.User{
						ID:        id,
						Username:  req.Username,
						Email:     "a@x.com",
						Bio:       req.Bio,
						AvatarURL: req.AvatarURL,
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			body: `{"username":"alice2"}`,
			storeSetup: func(f *fakeUserStore) {
				f.updateFn = func(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
					return user.User{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "username_taken",
			body: `{"username":"bob"}`,
			storeSetup: func(f *fakeUserStore) {
				f.updateFn = func(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
					return user.User{}, user.ErrDuplicate
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_username",
			body:           `{"bio":"just a bio"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewAuthHandler(store, &fakeIssuer{})

			r := setupRouterAs(aliceID, http.MethodPut, "/auth/profile/update", h.UpdateProfile)

			w := doJSON(r, http.MethodPut, "/auth/profile/update", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
