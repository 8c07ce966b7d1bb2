package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/portfolio-api/internal/logging"
	"github.com/iliyamo/portfolio-api/internal/model"
)

// Wire error codes.
const (
	CodeConflict             = "conflict"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeValidation           = "validation_error"
	CodeInvalidBody          = "invalid_body"
	CodeNotFound             = "not_found"
	CodeRegistrationDisabled = "registration_disabled"
	CodeInternal             = "internal_error"
)

func errorJSON(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": code, "message": msg})
}

func validationJSON(c echo.Context, fields []model.FieldError) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error":   CodeValidation,
		"message": "validation failed",
		"errors":  fields,
	})
}

// ErrorHandler renders every error that reaches Echo in the API's
// {"error","message"} shape. Unexpected errors become a 500; their text is
// exposed as "detail" only outside production.
func ErrorHandler(log logging.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code != http.StatusInternalServerError {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
			_ = errorJSON(c, he.Code, httpErrorCode(he.Code), msg)
			return
		}

		ctx := c.Request().Context()
		log.Error(ctx, "request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"err", err,
		)
		body := echo.Map{"error": CodeInternal, "message": "internal server error"}
		if !production {
			body["detail"] = err.Error()
		}
		_ = c.JSON(http.StatusInternalServerError, body)
	}
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	}
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}
