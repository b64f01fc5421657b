package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roamplan/roamplan-backend/internal/domain"
	"github.com/roamplan/roamplan-backend/internal/service"
	"github.com/roamplan/roamplan-backend/internal/util"
)

type AuthHandler struct {
	auth *service.AuthService
}

type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name,omitempty"`
	ImageURL  *string `json:"user_image_url,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService) {
	handler := &AuthHandler{auth: auth}

	group := e.Group("/api/v1/auth")
	group.POST("/register", handler.register)
	group.POST("/login", handler.login)
	group.POST("/google", handler.loginWithGoogle)
	group.POST("/password-reset/request", handler.requestPasswordReset)
	group.POST("/password-reset/confirm", handler.confirmPasswordReset)

	protected := e.Group("/api/v1/auth", RequireAuth(auth))
	protected.POST("/logout", handler.logout)
	protected.GET("/me", handler.me)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, util.Error("email and password are required"))
	}

	user, token, err := h.auth.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			return c.JSON(http.StatusConflict, util.Error("email is already registered"))
		case errors.Is(err, util.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, util.Error("could not create account"))
		}
	}

	return c.JSON(http.StatusCreated, util.Envelope{
		"user":  toUserResponse(user),
		"token": token,
	})
}

func (h *AuthHandler) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	user, token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, util.Error("invalid email or password"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not sign in"))
	}

	return c.JSON(http.StatusOK, util.Envelope{
		"user":  toUserResponse(user),
		"token": token,
	})
}

func (h *AuthHandler) loginWithGoogle(c echo.Context) error {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.IDToken) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("id_token is required"))
	}

	user, token, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, util.Error("google sign-in failed"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not sign in"))
	}

	return c.JSON(http.StatusOK, util.Envelope{
		"user":  toUserResponse(user),
		"token": token,
	})
}

func (h *AuthHandler) logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), currentToken(c)); err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not sign out"))
	}
	return c.JSON(http.StatusOK, util.Envelope{"message": "signed out"})
}

func (h *AuthHandler) me(c echo.Context) error {
	token := currentToken(c)
	user, err := h.auth.Authenticate(c.Request().Context(), token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, util.Error("invalid or expired session"))
	}
	return c.JSON(http.StatusOK, util.Envelope{"user": toUserResponse(user)})
}

func (h *AuthHandler) requestPasswordReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("email is required"))
	}

	// Unknown emails get the same reply so the endpoint cannot be used
	// to probe which addresses exist.
	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not start password reset"))
	}
	return c.JSON(http.StatusOK, util.Envelope{"message": "if the address exists, a reset code has been sent"})
}

func (h *AuthHandler) confirmPasswordReset(c echo.Context) error {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	err := h.auth.ConfirmPasswordReset(c.Request().Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetCode):
			return c.JSON(http.StatusBadRequest, util.Error("reset code is invalid or expired"))
		case errors.Is(err, util.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, util.Error("could not reset password"))
		}
	}
	return c.JSON(http.StatusOK, util.Envelope{"message": "password updated"})
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		FullName:  user.FullName,
		ImageURL:  user.ImageURL,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
