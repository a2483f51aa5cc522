package handler

import (
	"admin-service/pkg/apperror"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	t.Run("liveness", func(t *testing.T) {
		rec := serve(t, NewHealthHandler(nil, clk).Health, "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "2024-01-02T03:04:05Z", body["timestamp"])
		assert.NotContains(t, body, "db_status")
	})

	t.Run("database reachable", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectPing()

		rec := serve(t, NewHealthHandler(db, clk).Health, "/health?check=db")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decode(t, rec)["db_status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database down", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		rec := serve(t, NewHealthHandler(db, clk).Health, "/health?check=db")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "unhealthy", body["status"])
		assert.Equal(t, "unavailable", body["db_status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIndex(t *testing.T) {
	rec := serve(t, NewHealthHandler(nil, nil).Index, "/")
	body := decode(t, rec)
	assert.Equal(t, "Student SaaS Admin API", body["message"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "running", body["status"])
}

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"validation", apperror.Invalid("op", "invalid email format"), 400, apperror.EInvalid, "invalid email format"},
		{"conflict", apperror.Conflict("op", "subdomain already exists"), 400, apperror.EConflict, "subdomain already exists"},
		{"not found", apperror.NotFound("op", "tenant not found"), 404, apperror.ENotFound, "tenant not found"},
		{"unauthorized", apperror.Unauthorized("op", "invalid token"), 401, apperror.EUnauthorized, "invalid token"},
		{"internal is masked", errors.New("pq: connection reset"), 500, apperror.EInternal, "internal error"},
		{"echo not found", echo.ErrNotFound, 404, apperror.ENotFound, "Not Found"},
		{"body too large", echo.ErrStatusRequestEntityTooLarge, 413, apperror.ETooLarge, "Request Entity Too Large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, func(echo.Context) error { return tc.err }, "/")
			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tc.code, body["code"])
			assert.Equal(t, tc.msg, body["message"])
		})
	}
}

func TestParamIDAndQueryInt(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=3&per_page=abc", nil), httptest.NewRecorder())
	c.SetParamNames("id")

	for _, bad := range []string{"abc", "0", "-1", ""} {
		c.SetParamValues(bad)
		_, err := paramID(c, "test")
		assert.Equal(t, apperror.EInvalid, apperror.ErrorCode(err), bad)
	}

	c.SetParamValues("42")
	id, err := paramID(c, "test")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	assert.Equal(t, 3, queryInt(c, "page", 1))
	assert.Equal(t, 10, queryInt(c, "per_page", 10))
	assert.Equal(t, 7, queryInt(c, "missing", 7))
}
