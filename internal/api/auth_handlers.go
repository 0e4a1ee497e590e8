package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/david/tender-finder/internal/auth"
)

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := s.Auth.Signup(c.Request().Context(), req)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		return errorJSON(c, http.StatusForbidden, "Role not allowed")
	case err != nil:
		s.log.Error("signup failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := s.Auth.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return errorJSON(c, http.StatusUnauthorized, "Invalid credentials")
		}
		s.log.Error("login failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
	}

	return c.JSON(http.StatusOK, resp)
}
