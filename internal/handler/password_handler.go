package handler

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler/response"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
)

type PasswordHandler struct {
	reset service.PasswordResetService
	log   logger.Logger
}

func NewPasswordHandler(reset service.PasswordResetService, log logger.Logger) *PasswordHandler {
	return &PasswordHandler{reset: reset, log: log.Named("PasswordHTTPHandler")}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *PasswordHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	if err := h.reset.RequestReset(r.Context(), req.Email); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, service.ResetRequestedMessage, nil)
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *PasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	if err := h.reset.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Password has been reset successfully", nil)
}
