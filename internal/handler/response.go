package handler

import (
	"admin-service/pkg/apperror"
	"admin-service/pkg/logger"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler renders every error returned by a handler, middleware or
// the router itself as an ErrorResponse
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := render(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c).Error("Request failed", zap.Int("status", status), zap.Error(err))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		logger.FromContext(c).Error("Failed to write error response", zap.Error(writeErr))
	}
}

func render(err error) (int, ErrorResponse) {
	var httpErr *echo.HTTPError
	var appErr *apperror.Error
	if errors.As(err, &httpErr) && !errors.As(err, &appErr) {
		code := codeForStatus(httpErr.Code)
		msg := code
		if m, ok := httpErr.Message.(string); ok && code != apperror.EInternal {
			msg = m
		}
		return httpErr.Code, ErrorResponse{Code: code, Message: msg}
	}

	code := apperror.ErrorCode(err)
	return apperror.HTTPStatus(code), ErrorResponse{Code: code, Message: apperror.ErrorMessage(err)}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return apperror.EInvalid
	case http.StatusUnauthorized:
		return apperror.EUnauthorized
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperror.ENotFound
	case http.StatusRequestEntityTooLarge:
		return apperror.ETooLarge
	}
	return apperror.EInternal
}

// bind decodes the request body, reporting malformed input as invalid
func bind(c echo.Context, op string, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperror.NewError(
			apperror.WithErrorCode(apperror.EInvalid),
			apperror.WithErrorOp(op),
			apperror.WithErrorMsg("invalid request body"),
			apperror.WithErrorErr(err),
		)
	}
	return nil
}

// paramID parses the :id path parameter
func paramID(c echo.Context, op string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Invalid(op, "invalid id: %q", c.Param("id"))
	}
	return uint(id), nil
}

// queryInt returns the integer query parameter name, or def when it is
// absent or not a number
func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}
