package echoapi

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

func Test_errorResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  interface{}
	}{
		{"unauthenticated", errors.Wrap(core.ErrUnauthenticated, "listing"), http.StatusUnauthorized, core.ErrUnauthenticated.Error()},
		{"missing jwt", middleware.ErrJWTMissing, http.StatusUnauthorized, "missing or malformed jwt"},
		{"invalid credentials", errors.Wrap(user.ErrInvalidCredentials, "authenticating"), http.StatusUnauthorized, "invalid email or password"},
		{"permission", errors.Wrap(core.NewPermissionError("nope"), "creating"), http.StatusForbidden, "nope"},
		{"not found", errors.Wrap(course.ErrNotFound, "getting course"), http.StatusNotFound, "course not found"},
		{"conflict", errors.Wrap(course.ErrAlreadyEnrolled, "enrolling"), http.StatusConflict, "you are already enrolled in this course"},
		{
			"field validation",
			errors.Wrap(core.NewFieldValidationError("code", "too long"), "creating"),
			http.StatusBadRequest,
			map[string]string{"code": "too long"},
		},
		{"plain validation", core.NewValidationError(errors.New("bad input")), http.StatusBadRequest, "bad input"},
		{
			"store failure",
			errors.Wrap(core.NewStoreError(errors.New("connection refused"), "load course"), "getting course"),
			http.StatusInternalServerError,
			"failed to load course",
		},
		{
			"unknown",
			errors.New("boom"),
			http.StatusInternalServerError,
			"Sorry, something went wrong on our end. Please try again later.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := errorResponse(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func Test_errorResponse_validator(t *testing.T) {
	err := core.Validate.Struct(course.NewModule{Name: "Quiz"})
	code, msg := errorResponse(errors.Wrap(err, "creating module"))
	assert.Equal(t, http.StatusBadRequest, code)
	fields, ok := msg.(map[string]string)
	if assert.True(t, ok) {
		assert.Contains(t, fields, "total_marks")
	}
}
