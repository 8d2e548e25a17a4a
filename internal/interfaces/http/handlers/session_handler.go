package handlers

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/molview/internal/application/analysis"
	"github.com/turtacn/molview/internal/application/session"
	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// multipartOverhead is the body allowance on top of the upload limit for
// multipart boundaries and the other form fields.
const multipartOverhead = 1 << 20

// SessionHandler serves the per-user analysis workspace.
type SessionHandler struct {
	registry *session.Registry
	logger   logging.Logger
}

// NewSessionHandler creates a SessionHandler over registry.
func NewSessionHandler(registry *session.Registry, logger logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SessionHandler{registry: registry, logger: logger}
}

// AnalyzeRequest is the JSON body of POST /api/sessions/{id}/analyze.
// Example names a curated molecule and is used when SMILES is empty.
type AnalyzeRequest struct {
	Mode    string `json:"mode,omitempty"`
	SMILES  string `json:"smiles"`
	Example string `json:"example,omitempty"`
}

// StyleRequest is the JSON body of POST .../viewer/style.
type StyleRequest struct {
	Style string `json:"style"`
}

// ViewerResponse is returned by the viewer actions.
type ViewerResponse struct {
	Viewer viewer.ViewerState `json:"viewer"`
	Scene  viewer.SceneState  `json:"scene"`
}

// Create handles POST /api/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.registry.Create()
	w.Header().Set("Location", "/api/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// SessionCtx loads the session named by {sessionID} into the request context.
func (h *SessionHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		s, ok := h.registry.Get(id)
		if !ok {
			writeAppError(w, errors.NotFound("session not found").WithDetail(id))
			return
		}
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
	})
}

func sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeAppError(w, errors.Internal("session missing from request context"))
	}
	return s, ok
}

// Get handles GET /api/sessions/{sessionID}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Delete handles DELETE /api/sessions/{sessionID}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	h.registry.Delete(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Analyze handles POST /api/sessions/{sessionID}/analyze.  A JSON body
// submits SMILES; a multipart body submits the "file" field.  The request
// blocks until the run finishes and answers with the session snapshot.
func (h *SessionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	form, err := h.readForm(w, r, s.Resolver.MaxSize())
	if err != nil {
		s.Presenter.Notifier.Error(errors.UserMessage(err))
		writeAppError(w, err)
		return
	}

	if _, err := s.Analyze(r.Context(), form); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) readForm(w http.ResponseWriter, r *http.Request, maxUpload int64) (analysis.Form, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req AnalyzeRequest
		if err := decodeJSON(r, &req); err != nil {
			return analysis.Form{}, err
		}
		smiles := req.SMILES
		if strings.TrimSpace(smiles) == "" && req.Example != "" {
			ex, ok := molecule.LookupExample(req.Example)
			if !ok {
				return analysis.Form{}, errors.NotFound("unknown example molecule").WithDetail(req.Example)
			}
			smiles = ex.SMILES
		}
		mode := analysis.InputMode(req.Mode)
		if mode == "" {
			mode = analysis.ModeText
		}
		return analysis.Form{Mode: mode, SMILES: smiles}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return analysis.Form{}, analysis.FileTooLarge(maxUpload)
		}
		return analysis.Form{}, errors.InvalidParam("malformed multipart body").WithCause(err)
	}

	mode := analysis.InputMode(r.FormValue("mode"))
	if mode == "" {
		mode = analysis.ModeFile
	}
	form := analysis.Form{Mode: mode, SMILES: r.FormValue("smiles")}

	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return form, nil
	}
	if err != nil {
		return analysis.Form{}, errors.InvalidParam("could not read uploaded file").WithCause(err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
	if err != nil {
		return analysis.Form{}, errors.InvalidParam("could not read uploaded file").WithCause(err)
	}
	form.File = &analysis.FileUpload{Name: header.Filename, Size: header.Size, Content: content}
	return form, nil
}

// Reset handles POST /api/sessions/{sessionID}/reset.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	s.Reset()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// DismissNotification handles DELETE /api/sessions/{sessionID}/notifications/{notificationID}.
func (h *SessionHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "notificationID")
	if !s.Presenter.Notifier.Dismiss(id) {
		writeAppError(w, errors.NotFound("notification not found").WithDetail(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ViewerAction handles POST /api/sessions/{sessionID}/viewer/{action}.
func (h *SessionHandler) ViewerAction(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var err error
	switch action := chi.URLParam(r, "action"); action {
	case "attach":
		s.Scene.Attach()
	case "detach":
		s.Scene.Detach()
	case "style":
		var req StyleRequest
		if err = decodeJSON(r, &req); err != nil {
			break
		}
		if req.Style == "" {
			req.Style = r.URL.Query().Get("style")
		}
		var style viewer.Style
		if style, err = viewer.ParseStyle(req.Style); err == nil {
			err = s.Viewer.ApplyStyle(style)
		}
	case "cycle":
		_, err = s.Viewer.CycleStyle()
	case "rotate":
		s.Viewer.ToggleRotation()
	case "reset":
		s.Viewer.ResetView()
	case "clear":
		s.Viewer.Clear()
	default:
		err = errors.NotFound("unknown viewer action").WithDetail(action)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ViewerResponse{Viewer: s.Viewer.State(), Scene: s.Scene.Snapshot()})
}
