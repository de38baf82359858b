package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/datacleaner/internal/core"
)

// selectionField is the multipart field carrying the options as JSON.
const selectionField = "selection"

// FileResponse is one file's entry in a process response.
type FileResponse struct {
	*core.FileResult
	Error *ErrorResponse `json:"error,omitempty"`
}

// ProcessResponse is the body of POST /api/process.
type ProcessResponse struct {
	Files  []FileResponse `json:"files"`
	Failed int            `json:"failed"`
}

// handleAPIProcess runs every uploaded file through the pipeline with the
// same options and returns the per-file results. Files that fail carry
// their error; the request still succeeds.
func (s *Server) handleAPIProcess(w http.ResponseWriter, r *http.Request) {
	s.limitBody(w, r)
	uploads, err := s.readUploads(r, "files")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sel, err := selectionFromForm(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	release, err := s.service.Acquire(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	files := make([]core.UploadedFile, len(uploads))
	for i, u := range uploads {
		// Unsupported files keep their error for Process to report.
		files[i], _ = core.NewUploadedFile(u.name, u.content)
	}

	batch, err := s.service.ProcessBatch(r.Context(), files, sel)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := ProcessResponse{Files: make([]FileResponse, len(batch.Files)), Failed: batch.Failed}
	for i, res := range batch.Files {
		resp.Files[i] = FileResponse{FileResult: res}
		if res.Err != nil {
			resp.Files[i].Error = newErrorResponse(core.MapError(res.Err))
		}
	}
	render.JSON(w, r, resp)
}

// handleAPIConvert processes a single uploaded file and returns the export
// as an attachment.
func (s *Server) handleAPIConvert(w http.ResponseWriter, r *http.Request) {
	s.limitBody(w, r)
	uploads, err := s.readUploads(r, "file")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(uploads) != 1 {
		s.respondError(w, r, fmt.Errorf("%w: convert takes exactly one file, got %d", core.ErrNoFiles, len(uploads)))
		return
	}
	sel, err := selectionFromForm(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	release, err := s.service.Acquire(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	file, _ := core.NewUploadedFile(uploads[0].name, uploads[0].content)
	art, _, err := s.service.Convert(r.Context(), file, sel)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeArtifact(w, art)
}

// selectionFromForm decodes the optional selection JSON of a parsed
// multipart form. A missing field is the zero selection.
func selectionFromForm(r *http.Request) (core.TransformSelection, error) {
	var sel core.TransformSelection
	raw := strings.TrimSpace(r.FormValue(selectionField))
	if raw == "" {
		return sel, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sel); err != nil {
		return sel, &core.SelectionError{Fields: []string{"selection: " + err.Error()}}
	}
	return sel, nil
}
