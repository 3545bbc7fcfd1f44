package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"user-service/internal/domain"
	"user-service/internal/usecase"
	"user-service/pkg/middleware"
	"user-service/pkg/response"
	"user-service/pkg/utils"
	"user-service/pkg/xerrors"
)

type UserHandler struct {
	uc     *usecase.UserUsecase
	logger *zap.Logger
}

func NewUserHandler(uc *usecase.UserUsecase, logger *zap.Logger) *UserHandler {
	return &UserHandler{uc: uc, logger: logger}
}

type CreateUserRequest struct {
	ID       string  `json:"id,omitempty"`
	Email    string  `json:"email"`
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Location *string `json:"location,omitempty"`
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !utils.ValidateEmail(req.Email) {
		response.Error(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if req.Phone != nil && !utils.ValidatePhone(*req.Phone) {
		response.Error(w, http.StatusBadRequest, "invalid phone number")
		return
	}

	user := &domain.User{
		ID:       req.ID,
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Bio:      req.Bio,
		Location: req.Location,
	}

	created, err := h.uc.CreateUser(r.Context(), user)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, created)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.uc.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.ListFilter{
		Name:     queryPtr(q.Get("name")),
		Email:    queryPtr(q.Get("email")),
		Phone:    queryPtr(q.Get("phone")),
		Location: queryPtr(q.Get("location")),
		Offset:   queryInt(q.Get("offset"), 0),
		Limit:    queryInt(q.Get("limit"), 50),
	}

	users, err := h.uc.ListUsers(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorizeSelf(w, r, id) {
		return
	}

	var update domain.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request")
		return
	}
	if update.Phone != nil && !utils.ValidatePhone(*update.Phone) {
		response.Error(w, http.StatusBadRequest, "invalid phone number")
		return
	}

	user, err := h.uc.UpdateUser(r.Context(), id, &update)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorizeSelf(w, r, id) {
		return
	}

	if err := h.uc.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"user_id": id,
		"message": "Removed user successfully",
	})
}

// authorizeSelf enforces that a mutating call acts only on the caller's own
// account. The check runs before any store lookup, so a mismatch is a 403
// regardless of whether the target exists.
func (h *UserHandler) authorizeSelf(w http.ResponseWriter, r *http.Request, targetID string) bool {
	subject, ok := middleware.GetUserID(r.Context())
	if !ok || subject == "" {
		response.Error(w, http.StatusUnauthorized, "No authenticated subject")
		return false
	}
	if subject != targetID {
		response.Error(w, http.StatusForbidden, "Cannot modify another user's account")
		return false
	}
	return true
}

func (h *UserHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrUserNotFound), errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, xerrors.ErrUserAlreadyExists):
		response.Error(w, http.StatusConflict, "User with this ID already exists")
	case errors.Is(err, xerrors.ErrEmailAlreadyInUse):
		response.Error(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, xerrors.ErrEmailRequired):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, xerrors.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Forbidden")
	default:
		h.logger.Error("request failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func queryPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func queryInt(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
