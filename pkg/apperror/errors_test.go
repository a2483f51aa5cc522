package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"msg only", &Error{Code: EInvalid, Msg: "name is required"}, "name is required"},
		{"msg and err", &Error{Code: EInternal, Msg: "query failed", Err: errors.New("boom")}, "query failed: boom"},
		{"err only", &Error{Code: EInternal, Err: errors.New("boom")}, "boom"},
		{"code only", &Error{Code: ENotFound}, "<not found>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorCode(t *testing.T) {
	conflict := Conflict("svc.Create", "tenant name already exists")

	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, EConflict, ErrorCode(conflict))
	assert.Equal(t, EConflict, ErrorCode(fmt.Errorf("wrapped: %w", conflict)))
	assert.Equal(t, EInternal, ErrorCode(errors.New("plain")))

	nested := NewError(WithErrorOp("handler"), WithErrorErr(NotFound("store", "tenant not found")))
	assert.Equal(t, ENotFound, ErrorCode(nested))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "tenant not found", ErrorMessage(NotFound("store", "tenant not found")))
	assert.Equal(t, EInternal, ErrorMessage(Internal("store", errors.New("dial tcp: refused"))))
	assert.Equal(t, EInternal, ErrorMessage(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(EInvalid))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(EConflict))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ENotFound))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(EUnauthorized))
	assert.Equal(t, http.StatusRequestEntityTooLarge, HTTPStatus(ETooLarge))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(EInternal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("bogus"))
}
