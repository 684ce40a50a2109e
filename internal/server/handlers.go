package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/changelog"
	"github.com/shiplog-io/shiplog/internal/resolve"
	"github.com/shiplog-io/shiplog/internal/store"
)

var validate = validator.New()

// rangeRequest is the transport form of a pipeline request. Mode decides
// which of the optional fields are required; resolve.ParseSpec enforces that.
// Branch is optional and falls back to the configured default.
type rangeRequest struct {
	Repo   string `json:"repo" validate:"required"`
	Branch string `json:"branch"`
	Mode   string `json:"mode" validate:"required,oneof=date sha tag"`
	Start  string `json:"startDate,omitempty"`
	End    string `json:"endDate,omitempty"`
	Base   string `json:"base,omitempty"`
	Head   string `json:"head,omitempty"`
}

// publishRequest carries a reviewed draft for persistence: the text as the
// caller wants it published plus the exact commit set it covers. The server
// never re-drafts on publish.
type publishRequest struct {
	Repo       string       `json:"repo" validate:"required"`
	Branch     string       `json:"branch"`
	Mode       string       `json:"mode" validate:"required,oneof=date sha tag"`
	BaseSHA    string       `json:"baseSha" validate:"required"`
	HeadSHA    string       `json:"headSha" validate:"required"`
	Markdown   string       `json:"markdown" validate:"required"`
	CommitSHAs []string     `json:"commitShas" validate:"required,min=1"`
	Params     *rangeParams `json:"originalParams,omitempty"`
}

// rangeParams echoes the range as it was originally requested, for the
// mode-specific display fields of the persisted record.
type rangeParams struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Base  string `json:"base,omitempty"`
	Head  string `json:"head,omitempty"`
}

// amendRequest carries replacement markdown for a published changelog.
type amendRequest struct {
	Markdown string `json:"markdown" validate:"required"`
}

// draftResponse is the non-persisted result of a generate call.
type draftResponse struct {
	Repo     string   `json:"repo"`
	Branch   string   `json:"branch"`
	Mode     string   `json:"mode"`
	BaseSHA  string   `json:"baseSha"`
	HeadSHA  string   `json:"headSha"`
	Commits  []string `json:"commitShas"`
	Markdown string   `json:"markdown"`
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/changelogs/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/changelogs", s.handlePublish)
	mux.HandleFunc("GET /api/changelogs", s.handleList)
	mux.HandleFunc("PATCH /api/changelogs/{id}", s.handleAmend)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate drafts a changelog without persisting it.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, spec, ok := s.decodeRangeRequest(w, r)
	if !ok {
		return
	}

	d, err := s.service.Generate(r.Context(), changelog.Request{
		Repo:   req.Repo,
		Branch: req.Branch,
		Spec:   spec,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draftResponse{
		Repo:     d.Repo,
		Branch:   d.Branch,
		Mode:     string(d.Spec.Mode()),
		BaseSHA:  d.Range.BaseSHA,
		HeadSHA:  d.Range.HeadSHA,
		Commits:  d.Range.CommitSHAs(),
		Markdown: d.Markdown,
	})
}

// handlePublish persists a reviewed draft. Generation happened on an earlier
// generate call; this endpoint only re-checks overlap and writes.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Branch == "" {
		req.Branch = s.settings.DefaultBranch
	}

	p := changelog.Publication{
		Repo:       req.Repo,
		Branch:     req.Branch,
		Mode:       req.Mode,
		BaseSHA:    req.BaseSHA,
		HeadSHA:    req.HeadSHA,
		Markdown:   req.Markdown,
		CommitSHAs: req.CommitSHAs,
	}
	if req.Params != nil {
		switch req.Mode {
		case "date":
			p.StartDate = req.Params.Start
			p.EndDate = req.Params.End
		case "tag":
			p.BaseTag = req.Params.Base
			p.HeadTag = req.Params.Head
		}
	}

	rec, err := s.service.PublishReviewed(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleList returns published changelogs for a repo, newest first.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	repo := r.URL.Query().Get("repo")
	if repo == "" {
		s.writeError(w, apperr.New(apperr.Validation, "repo query parameter is required"))
		return
	}
	branch := r.URL.Query().Get("branch")

	records, err := s.service.List(r.Context(), repo, branch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []store.ReleaseRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleAmend replaces the markdown of a published changelog.
func (s *Server) handleAmend(w http.ResponseWriter, r *http.Request) {
	var req amendRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	rec, err := s.service.Amend(r.Context(), r.PathValue("id"), req.Markdown)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// decodeRangeRequest reads, validates, and parses the range fields of a
// generate call. Reports its own errors; ok is false when it did.
func (s *Server) decodeRangeRequest(w http.ResponseWriter, r *http.Request) (rangeRequest, resolve.RangeSpec, bool) {
	var req rangeRequest
	if !s.decodeBody(w, r, &req) {
		return req, nil, false
	}
	if req.Branch == "" {
		req.Branch = s.settings.DefaultBranch
	}

	spec, err := resolve.ParseSpec(req.Mode, req.Start, req.End, req.Base, req.Head)
	if err != nil {
		s.writeError(w, err)
		return req, nil, false
	}
	return req, spec, true
}

// decodeBody unmarshals and struct-validates a JSON request body.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, apperr.New(apperr.Validation, "request body exceeds %d bytes", s.settings.MaxBodyBytes))
			return false
		}
		s.writeError(w, apperr.New(apperr.Validation, "invalid JSON body: %v", err))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			s.writeError(w, apperr.New(apperr.Validation, "field %s failed %s validation",
				fieldErrs[0].Field(), fieldErrs[0].Tag()))
			return false
		}
		s.writeError(w, apperr.New(apperr.Validation, "invalid request: %v", err))
		return false
	}
	return true
}

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError maps pipeline errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "internal"
	msg := "internal error"

	if appErr := apperr.As(err); appErr != nil {
		status = appErr.Kind.HTTPStatus()
		kind = appErr.Kind.Code()
		msg = appErr.Error()
	} else {
		s.logger.Printf("unclassified error: %v", err)
	}

	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
