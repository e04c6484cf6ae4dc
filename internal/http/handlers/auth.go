package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/codetier/taskhub/internal/config"
	"github.com/codetier/taskhub/internal/domain/user"
	"github.com/codetier/taskhub/internal/http/middlewares"
	"github.com/codetier/taskhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

type AuthHandler struct {
	users UserStore
	jwt   TokenIssuer
}

func NewAuthHandler(users UserStore, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

// Register creates the account and nothing else. There is no
// auto-login, the caller logs in separately.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		slog.ErrorContext(ctx.Request.Context(), "password hash failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	_, err = h.users.Create(cctx, req.Username, req.Email, hash)

	if err != nil {
		// One ambiguous message for both email and username collisions.
		if errors.Is(err, user.ErrDuplicate) {
			RespondError(ctx, http.StatusBadRequest, "user_exists", "User already exists", nil)
			return
		}

		slog.ErrorContext(ctx.Request.Context(), "create user failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User created successfully",
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		slog.ErrorContext(ctx.Request.Context(), "login lookup failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	if !security.CheckPassword(foundUser.PasswordHash, req.Password) {
		RespondError(ctx, http.StatusBadRequest, "invalid_credentials", "Invalid credentials", nil)
		return
	}

	token, err := h.jwt.GenerateToken(foundUser.ID)

	if err != nil {
		slog.ErrorContext(ctx.Request.Context(), "token generation failed", "err", err)
		RespondInternal(ctx, "Could not generate session token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  foundUser.Profile(),
	})
}

func (h *AuthHandler) Profile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		slog.ErrorContext(ctx.Request.Context(), "profile lookup failed", "err", err)
		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"user": u.Profile()})
}

func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.UpdateProfile(cctx, userID, req)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		if errors.Is(err, user.ErrDuplicate) {
			RespondError(ctx, http.StatusBadRequest, "user_exists", "User already exists", nil)
			return
		}

		slog.ErrorContext(ctx.Request.Context(), "profile update failed", "err", err)
		RespondInternal(ctx, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u.Profile()})
}
