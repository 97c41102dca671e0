package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errNotMultipart = core.NewValidationError(errors.New("request must be multipart/form-data"))
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := errorResponse(err)

		if code == http.StatusInternalServerError {
			logger.Error(errors.Wrap(err, ctx.Request().Method+" "+ctx.Path()).Error(), err, principal(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// errorResponse maps an error to its HTTP status code and response message.
func errorResponse(err error) (int, interface{}) {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, origErr.Message
		}
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
		}
		return http.StatusBadRequest, fldErrs
	case *core.ValidationError:
		if origErr.Fields != nil {
			fldErrs := make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			return http.StatusBadRequest, fldErrs
		}
		return http.StatusBadRequest, origErr.Error()
	}

	switch {
	case err == user.ErrInvalidCredentials || errors.Cause(err) == user.ErrInvalidCredentials:
		return http.StatusUnauthorized, user.ErrInvalidCredentials.Error()
	case core.IsUnauthenticated(err):
		return http.StatusUnauthorized, core.ErrUnauthenticated.Error()
	case core.IsPermissionDenied(err):
		return http.StatusForbidden, causeMessage(err, func(e error) bool { _, ok := e.(*core.PermissionError); return ok })
	case core.IsNotFound(err):
		return http.StatusNotFound, causeMessage(err, func(e error) bool { _, ok := e.(*core.NotFoundError); return ok })
	case core.IsConflict(err):
		return http.StatusConflict, causeMessage(err, func(e error) bool { _, ok := e.(*core.ConflictError); return ok })
	case core.IsValidation(err):
		return http.StatusBadRequest, causeMessage(err, func(e error) bool { _, ok := e.(*core.ValidationError); return ok })
	case core.IsStoreFailure(err):
		var msg string
		causeMessage(err, func(e error) bool {
			if se, ok := e.(*core.StoreError); ok {
				msg = se.Message
				return true
			}
			return false
		})
		return http.StatusInternalServerError, msg
	}
	// any other error is a server error
	return http.StatusInternalServerError, "Sorry, something went wrong on our end. Please try again later."
}

// causeMessage returns the message of the first cause of err satisfying match.
func causeMessage(err error, match func(error) bool) string {
	for e := err; e != nil; {
		if match(e) {
			return e.Error()
		}
		cause, ok := e.(interface{ Cause() error })
		if !ok {
			break
		}
		e = cause.Cause()
	}
	return err.Error()
}
