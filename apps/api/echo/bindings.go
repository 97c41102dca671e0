package echoapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

// maxUploadSize caps the size of a multipart request body.
const maxUploadSize = 32 << 20

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// bindJSON binds the request body into i; malformed bodies are validation errors.
func bindJSON(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		if herr, ok := err.(*echo.HTTPError); ok && herr.Code == http.StatusBadRequest {
			return core.NewValidationError(errors.New("malformed request body"))
		}
		return errors.Wrap(err, "binding request body")
	}
	return nil
}

// bindUpload returns the file sent in the multipart field, nil if none was sent.
// The returned closer must be called once the upload is consumed.
func bindUpload(ctx echo.Context, field string) (*core.Upload, io.Closer, error) {
	if !isMultipart(ctx) {
		return nil, nil, errNotMultipart
	}
	req := ctx.Request()
	req.Body = http.MaxBytesReader(ctx.Response(), req.Body, maxUploadSize)

	fh, err := ctx.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, nil
		}
		return nil, nil, core.NewFieldValidationError(field, "invalid file upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening uploaded file")
	}
	return &core.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Content:     f,
	}, f, nil
}

func closeUpload(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

type SuccessResponse struct {
	Success string `json:"success"`
}
