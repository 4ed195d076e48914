package handler

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler/response"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	auth service.AuthService
	log  logger.Logger
}

func NewUserHandler(auth service.AuthService, log logger.Logger) *UserHandler {
	return &UserHandler{auth: auth, log: log.Named("UserHTTPHandler")}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Created(w, "User registered successfully", res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Login successful", res)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	user, err := h.auth.GetProfile(r.Context(), p.UserID)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Profile retrieved", user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req service.UpdateProfileInput
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	user, err := h.auth.UpdateProfile(r.Context(), p.UserID, req)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Profile updated", user)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	user, err := h.auth.UpdateRole(r.Context(), p, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Role updated", user)
}
