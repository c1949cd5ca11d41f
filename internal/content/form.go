package content

import (
	"mime"
	"net/http"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

// Form is a decoded create or update request.
type Form struct {
	files  map[string]*upload.File
	closes []func()
}

// DecodeForm accepts either a JSON body or a multipart form whose "data" field
// carries the same JSON alongside file fields. target is validated either way.
func DecodeForm(w http.ResponseWriter, r *http.Request, maxBytes int64, target any) (*Form, error) {
	form := &Form{files: make(map[string]*upload.File)}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return form, httpx.DecodeJSON(r, target)
	}
	if err := upload.ParseForm(w, r, maxBytes); err != nil {
		return form, err
	}
	data := r.FormValue("data")
	if strings.TrimSpace(data) == "" {
		data = "{}"
	}
	if err := httpx.DecodeJSONReader(strings.NewReader(data), target); err != nil {
		return form, err
	}
	for field := range r.MultipartForm.File {
		file, closeFile, err := upload.FromMultipart(r, field)
		if err != nil {
			form.Close()
			return form, err
		}
		form.closes = append(form.closes, closeFile)
		if file != nil {
			form.files[field] = file
		}
	}
	return form, nil
}

// File returns the file submitted under field, or nil.
func (f *Form) File(field string) *upload.File {
	if f == nil {
		return nil
	}
	return f.files[field]
}

// Close releases every opened file.
func (f *Form) Close() {
	if f == nil {
		return
	}
	for _, c := range f.closes {
		c()
	}
	f.closes = nil
}

// RequireMedia fails with a validation error on field when neither a file nor
// an existing URL is present.
func RequireMedia(field string, file *upload.File, url string) error {
	if file == nil && strings.TrimSpace(url) == "" {
		return shared.NewValidationError(field, "wajib diisi")
	}
	return nil
}
