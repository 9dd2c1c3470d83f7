package auth

import (
	"errors"
	"net/http"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/identity"
	"github.com/tabshare/tabshare/internal/infrastructure/json"
	"github.com/tabshare/tabshare/internal/infrastructure/validate"
)

type Handler struct {
	users    domain.UserRepository
	provider *identity.Provider
}

func NewHandler(users domain.UserRepository, provider *identity.Provider) *Handler {
	return &Handler{
		users:    users,
		provider: provider,
	}
}

func (h *Handler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validate.Field("password", validate.Required(), validate.MinLength(8), validate.MaxLength(128))(req.Password); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	user, err := domain.NewUser(req.Name, req.Email, hash)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			json.WriteError(w, http.StatusConflict, err, "An account with this email already exists")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	token, err := h.provider.IssueToken(user.ID, user.Name)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, authResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidInput):
			// Same response as a bad password so emails cannot be probed.
			json.WriteUnauthorizedError(w, "Invalid email or password")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	if !identity.CheckPassword(user.PasswordHash, req.Password) {
		json.WriteUnauthorizedError(w, "Invalid email or password")
		return
	}

	token, err := h.provider.IssueToken(user.ID, user.Name)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, authResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
