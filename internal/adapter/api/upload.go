package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
)

// Upload rejection reasons. Each maps to a 400 response.
var (
	ErrMissingFile          = errors.New("no file provided")
	ErrUnsupportedExtension = errors.New("file extension not allowed")
	ErrMissingMetadata      = errors.New("sensor_id and timestamp are required")
	ErrInvalidImage         = errors.New("file is not a decodable image")
)

// UploadOptions controls where and what uploads are accepted.
type UploadOptions struct {
	Dir               string
	AllowedExtensions []string
	MaxBytes          int64
}

func (o UploadOptions) allowed(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext != "" && slices.Contains(o.AllowedExtensions, ext)
}

// storedUpload is a saved upload file plus the decoded image description.
type storedUpload struct {
	Filename   string
	StoredPath string
	Image      domain.ImagePayload
}

// SanitizeFilename strips directories and replaces anything outside
// [A-Za-z0-9._-] with an underscore.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}

// formFields flattens the first value of every multipart form field.
func formFields(form *multipart.Form) domain.RawPayload {
	fields := make(domain.RawPayload, len(form.Value))
	for k, vs := range form.Value {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	return fields
}

func hasMetadata(fields domain.RawPayload) bool {
	for _, key := range []string{"sensor_id", "timestamp"} {
		s, ok := fields[key].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

// saveUpload validates the image, writes it under opts.Dir as
// "<uploadID>_<name>", and returns its description with base64 content.
func saveUpload(opts UploadOptions, uploadID string, header *multipart.FileHeader) (storedUpload, error) {
	if header == nil || header.Size == 0 {
		return storedUpload{}, ErrMissingFile
	}
	if !opts.allowed(header.Filename) {
		return storedUpload{}, fmt.Errorf("%w: %s", ErrUnsupportedExtension, header.Filename)
	}

	f, err := header.Open()
	if err != nil {
		return storedUpload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return storedUpload{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return storedUpload{}, ErrMissingFile
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return storedUpload{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	name := SanitizeFilename(header.Filename)
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return storedUpload{}, fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(opts.Dir, uploadID+"_"+name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return storedUpload{}, fmt.Errorf("write upload: %w", err)
	}

	return storedUpload{
		Filename:   name,
		StoredPath: path,
		Image: domain.ImagePayload{
			Base64Data: base64.StdEncoding.EncodeToString(data),
			Format:     format,
			Width:      cfg.Width,
			Height:     cfg.Height,
		},
	}, nil
}
