package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/service"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Logout(c.Request.Context(), req.UserID); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Logged out")
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if _, err := h.svc.Register(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Registration successful")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Password changed")
}

// ── Users Handler ────────────────────────────────────────────────────────────

type UsersHandler struct{ svc service.AuthService }

func NewUsersHandler(svc service.AuthService) *UsersHandler { return &UsersHandler{svc: svc} }

func (h *UsersHandler) List(c *gin.Context) {
	resp, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsersHandler) Delete(c *gin.Context) {
	var req dto.DeleteUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), req.UserID); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "User deleted")
}
