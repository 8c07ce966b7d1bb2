package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/portfolio-api/internal/middleware"
	"github.com/iliyamo/portfolio-api/internal/service"
)

// AuthHandler serves /auth/*.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register: POST /auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, CodeInvalidBody, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Auth.Register(ctx, req.Username, req.Password)
	var verr *service.ValidationError
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"message": "user created"})
	case errors.As(err, &verr):
		return validationJSON(c, verr.Fields)
	case errors.Is(err, service.ErrConflict):
		return errorJSON(c, http.StatusBadRequest, CodeConflict, "user already exists")
	case errors.Is(err, service.ErrRegistrationDisabled):
		return errorJSON(c, http.StatusForbidden, CodeRegistrationDisabled, "registration is closed")
	default:
		return err
	}
}

// Login: POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, CodeInvalidBody, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Auth.Login(ctx, req.Username, req.Password)
	var verr *service.ValidationError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, loginResp{
			Token:     sess.Token.Token,
			Username:  sess.Username,
			ExpiresAt: sess.Token.Exp,
		})
	case errors.As(err, &verr):
		return validationJSON(c, verr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		return errorJSON(c, http.StatusBadRequest, CodeInvalidCredentials, "invalid credentials")
	default:
		return err
	}
}

// Me: GET /auth/me, behind JWTAuth.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"username": middleware.CurrentUser(c)})
}
