package httpx

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/observability/metrics"
)

const (
	// AvatarField is the multipart field holding the avatar file.
	AvatarField = "avatar"
	// multipartOverhead leaves room for boundaries and the other form fields.
	multipartOverhead = 1 << 20
	defaultMaxUpload  = 5 << 20
)

// UploadConfig configures UploadStage.
type UploadConfig struct {
	MaxBytes     int64
	AllowedTypes []string
	Field        string
	Metrics      *metrics.Registry
}

// UploadStage accepts at most one file from a multipart form and exposes it on the request state.
func UploadStage(cfg UploadConfig) Stage {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxUpload
	}
	if cfg.Field == "" {
		cfg.Field = AvatarField
	}
	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}

	reject := func(status int, msg string, cause error) error {
		cfg.Metrics.UploadRejected(status)
		return apperrors.PayloadRejected(status, msg, cause)
	}

	return Stage{Name: "upload", Wrap: func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if !isMultipart(r) {
				return next(w, r)
			}

			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBytes+multipartOverhead)
			if err := r.ParseMultipartForm(cfg.MaxBytes + multipartOverhead); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return reject(http.StatusRequestEntityTooLarge, "The file is too large.", err)
				}
				return reject(http.StatusBadRequest, "The upload could not be read.", err)
			}
			defer func() { _ = r.MultipartForm.RemoveAll() }()

			files := r.MultipartForm.File[cfg.Field]
			if len(files) == 0 {
				return next(w, r)
			}
			fh := files[0]
			if fh.Size > cfg.MaxBytes {
				return reject(http.StatusRequestEntityTooLarge, "The file is too large.", nil)
			}
			mimeType := strings.ToLower(fh.Header.Get("Content-Type"))
			if len(allowed) > 0 && !allowed[mimeType] {
				return reject(http.StatusUnsupportedMediaType, "Only PNG and JPEG images are accepted.", nil)
			}

			f, err := fh.Open()
			if err != nil {
				return reject(http.StatusBadRequest, "The upload could not be read.", err)
			}
			defer f.Close()
			data, err := io.ReadAll(io.LimitReader(f, cfg.MaxBytes+1))
			if err != nil {
				return reject(http.StatusBadRequest, "The upload could not be read.", fmt.Errorf("read upload: %w", err))
			}
			if int64(len(data)) > cfg.MaxBytes {
				return reject(http.StatusRequestEntityTooLarge, "The file is too large.", nil)
			}

			if len(data) > 0 {
				StateFrom(r).Upload = &Upload{
					Filename: filepath.Base(fh.Filename),
					MIMEType: mimeType,
					Size:     int64(len(data)),
					Data:     data,
				}
			}
			return next(w, r)
		}
	}}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
