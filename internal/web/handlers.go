package web

import (
	"net/http"
	"net/url"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/datacleaner/internal/core"
	"github.com/JonMunkholm/datacleaner/internal/logging"
	"github.com/JonMunkholm/datacleaner/internal/web/templates"
)

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, templates.WorkspacePage(s.pageMeta(), templates.Workspace{}))
}

// handleUpload holds every uploaded file, runs each through the pipeline
// with default options and renders one card per file. A file that fails
// gets its error in its own card; the others still render.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.limitBody(w, r)
	uploads, err := s.readUploads(r, "files")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(uploads) == 0 {
		renderPage(w, r, http.StatusOK, templates.WorkspacePage(s.pageMeta(), templates.Workspace{Notice: templates.NoticeNoFiles}))
		return
	}

	release, err := s.service.Acquire(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	held := make(map[core.FileID]bool, len(uploads))
	files := make([]core.UploadedFile, 0, len(uploads))
	for _, u := range uploads {
		file, err := s.service.Upload(u.name, u.content)
		if err != nil {
			logging.WithFile(r.Context(), file.ID.String(), file.Name).Debug("upload not held", "error", err)
		} else {
			held[file.ID] = true
		}
		files = append(files, file)
	}

	var sel core.TransformSelection
	batch, err := s.service.ProcessBatch(r.Context(), files, sel)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ws := templates.Workspace{Cards: make([]templates.FileCard, len(batch.Files))}
	for i, res := range batch.Files {
		ws.Cards[i] = templates.FileCard{Result: res, Selection: sel, Held: held[res.ID]}
	}
	renderPage(w, r, http.StatusOK, templates.WorkspacePage(s.pageMeta(), ws))
}

// handleWorkspace re-runs the pipeline for every held file named in the
// query, each with its own options, and renders the cards.
func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ids := q[templates.FieldFile]
	if len(ids) == 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if limit := s.cfg.Upload.MaxFiles; len(ids) > limit {
		ids = ids[:limit]
	}

	release, err := s.service.Acquire(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	ws := templates.Workspace{Cards: make([]templates.FileCard, 0, len(ids))}
	for _, raw := range ids {
		ws.Cards = append(ws.Cards, s.processHeld(r, raw, q))
	}
	renderPage(w, r, http.StatusOK, templates.WorkspacePage(s.pageMeta(), ws))
}

// handleFile renders the card of one held file with the options in the
// query string.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.service.File(id); err != nil {
		s.respondError(w, r, err)
		return
	}

	release, err := s.service.Acquire(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	card := s.processHeld(r, id.String(), r.URL.Query())
	renderPage(w, r, http.StatusOK, templates.WorkspacePage(s.pageMeta(), templates.Workspace{Cards: []templates.FileCard{card}}))
}

// processHeld runs one held file. An unknown or expired ID becomes a
// failed card rather than failing the page.
func (s *Server) processHeld(r *http.Request, raw string, values url.Values) templates.FileCard {
	id, err := core.ParseFileID(raw)
	if err != nil {
		return templates.FileCard{Result: &core.FileResult{ID: core.FileID(raw), Name: raw, Err: err}}
	}
	file, err := s.service.File(id)
	if err != nil {
		return templates.FileCard{Result: &core.FileResult{ID: id, Name: id.String(), Err: err}}
	}

	sel := parseSelection(values, id)
	res, _ := s.service.Process(r.Context(), file, sel)
	return templates.FileCard{Result: res, Selection: sel, Held: true}
}

// handleDownload runs the pipeline with the query-string options and sends
// the result as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	file, err := s.service.File(id)
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

	art, _, err := s.service.Convert(r.Context(), file, parseSelection(r.URL.Query(), id))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeArtifact(w, art)
}

// handleDiscard drops a held file, then returns to the workspace with the
// remaining files.
func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.service.Discard(id)

	rest := withoutFile(r.PostForm, id)
	if len(rest[templates.FieldFile]) == 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/files?"+rest.Encode(), http.StatusSeeOther)
}

// handleDelete drops a held file.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !s.service.Discard(id) {
		s.respondError(w, r, core.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string                   `json:"status"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
	Held    int                      `json:"held_files"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:  "ok",
		Uploads: s.service.Limiter().Status(),
		Held:    s.service.Held(),
	})
}
