package handler

import (
	"admin-service/internal/middleware"
	"admin-service/internal/service"
	"admin-service/pkg/apperror"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AuthHandler serves /auth
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges a username and password for a token pair
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := bind(c, "handler.Login", &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Refresh issues a new access token. Requires a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return apperror.Unauthorized("handler.Refresh", "authentication required")
	}

	access, err := h.auth.Refresh(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"access_token": access})
}

// Logout requires an access token
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return apperror.Unauthorized("handler.Logout", "authentication required")
	}

	if err := h.auth.Logout(c.Request().Context(), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Successfully logged out"})
}
