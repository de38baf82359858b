package web

// handlers_common.go holds request parsing and response helpers shared by
// the page and API handlers.

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datacleaner/internal/core"
	"github.com/JonMunkholm/datacleaner/internal/logging"
	"github.com/JonMunkholm/datacleaner/internal/web/templates"
)

// upload is one file part read from a multipart request.
type upload struct {
	name    string
	content []byte
}

// readUploads reads every non-empty file part named field. The body must
// already be wrapped in http.MaxBytesReader. It returns core.ErrTooManyFiles
// when the request carries more files than the configured limit.
func (s *Server) readUploads(r *http.Request, field string) ([]upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", core.ErrNoFiles, err)
	}

	var uploads []upload
	for _, header := range r.MultipartForm.File[field] {
		// Browsers send an unnamed empty part when nothing was selected.
		if header.Filename == "" {
			continue
		}
		if limit := s.cfg.Upload.MaxFiles; len(uploads) >= limit {
			return nil, fmt.Errorf("%w: limit is %d", core.ErrTooManyFiles, limit)
		}

		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", header.Filename, err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", header.Filename, err)
		}
		uploads = append(uploads, upload{name: header.Filename, content: content})
	}
	return uploads, nil
}

// limitBody caps the request body at the configured upload size.
func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
}

// fileIDParam parses the {fileID} URL parameter. Malformed IDs report
// core.ErrSessionNotFound.
func fileIDParam(r *http.Request) (core.FileID, error) {
	return core.ParseFileID(chi.URLParam(r, "fileID"))
}

// parseSelection reads the processing options for id from form values.
// Per-file controls are namespaced as "<id>.<field>"; when no key carries
// that prefix the plain field names are read instead, so
// /files/{id}?dedup=on works as well as the workspace form.
//
// Columns stays nil (keep all) unless the columns field or its companion
// cols_set marker is present, in which case an empty list selects none.
func parseSelection(values url.Values, id core.FileID) core.TransformSelection {
	prefix := ""
	ns := string(id) + "."
	for key := range values {
		if strings.HasPrefix(key, ns) {
			prefix = ns
			break
		}
	}

	var sel core.TransformSelection
	sel.RemoveDuplicates = truthy(values.Get(prefix + templates.FieldDedup))
	sel.FillMissing = truthy(values.Get(prefix + templates.FieldFill))
	sel.ShowChart = truthy(values.Get(prefix + templates.FieldChart))

	if v := strings.TrimSpace(values.Get(prefix + templates.FieldFormat)); v != "" {
		f, err := core.ParseFormat(v)
		if err != nil {
			// Left as given so Validate reports it.
			f = core.Format(v)
		}
		sel.ExportFormat = f
	}

	cols, hasCols := values[prefix+templates.FieldColumns]
	_, hasMarker := values[prefix+templates.FieldColumnsSet]
	if hasCols || hasMarker {
		sel.Columns = append([]string{}, cols...)
	}
	return sel
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}

// withoutFile returns values minus the workspace fields that belong to id.
func withoutFile(values url.Values, id core.FileID) url.Values {
	out := url.Values{}
	ns := string(id) + "."
	for key, vs := range values {
		if strings.HasPrefix(key, ns) {
			continue
		}
		if key == templates.FieldFile {
			for _, v := range vs {
				if v != string(id) {
					out.Add(key, v)
				}
			}
			continue
		}
		out[key] = vs
	}
	return out
}

// writeArtifact streams art as a file download.
func writeArtifact(w http.ResponseWriter, art *core.ExportArtifact) {
	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

// renderPage writes an HTML page with status.
func renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}
