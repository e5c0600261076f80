package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"

	apperrors "listing-generator/internal/common/errors"
	"listing-generator/internal/listing"
)

type typeOption struct {
	Value    string
	Label    string
	Selected bool
}

type segmentView struct {
	Name string
	HTML template.HTML
}

type pageView struct {
	Form           listing.FormState
	Errors         map[string]string
	Types          []typeOption
	Pending        bool
	Progress       string
	ErrorMessage   string
	HasResult      bool
	Segments       []segmentView
	RefreshSeconds int
}

func (s *Server) newPageView(st listing.State) pageView {
	view := pageView{
		Form:           st.Form,
		Errors:         st.Errors.Strings(),
		Pending:        st.Status.IsPending(),
		Progress:       st.Status.ProgressPhrase(),
		ErrorMessage:   st.Status.ErrorMessage(),
		HasResult:      !st.Result.IsEmpty(),
		RefreshSeconds: int(math.Ceil(s.opts.RefreshInterval.Seconds())),
	}
	for _, t := range listing.ListingTypes {
		view.Types = append(view.Types, typeOption{
			Value:    string(t),
			Label:    t.Label(),
			Selected: st.Form.Type == t,
		})
	}
	for _, seg := range s.sanitize(st.Result).Segments() {
		// Sanitize already produced escaped text.
		view.Segments = append(view.Segments, segmentView{Name: seg.Name, HTML: template.HTML(seg.Text)})
	}
	return view
}

// stateResponse is the JSON shape of a form instance.
type stateResponse struct {
	Form         listing.FormState      `json:"form"`
	Errors       map[string]string      `json:"errors"`
	Pending      bool                   `json:"pending"`
	Progress     string                 `json:"progress,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Result       *listing.ListingResult `json:"result,omitempty"`
}

func newStateResponse(st listing.State) stateResponse {
	resp := stateResponse{
		Form:         st.Form,
		Errors:       st.Errors.Strings(),
		Pending:      st.Status.IsPending(),
		Progress:     st.Status.ProgressPhrase(),
		ErrorMessage: st.Status.ErrorMessage(),
	}
	if !st.Result.IsEmpty() {
		result := st.Result
		resp.Result = &result
	}
	return resp
}

type fieldChangeRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	st, err := s.svc.State(r.Context(), id)
	if err != nil {
		s.internalError(w, "load session", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html.tmpl", s.newPageView(st)); err != nil {
		s.logger.Error("Failed to render page", map[string]interface{}{
			"sessionId": id,
			"error":     err.Error(),
		})
	}
}

// handleGenerateForm is the no-JavaScript path: the browser posts the whole
// form, only changed fields are applied, then the submission starts.
func (s *Server) handleGenerateForm(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	listingType, err := listing.ParseListingType(r.PostFormValue("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := listing.FormState{
		Type:         listingType,
		Location:     r.PostFormValue("location"),
		PropertyDesc: r.PostFormValue("propertyDesc"),
		KeyElements:  r.PostFormValue("keyElements"),
	}

	ctx := r.Context()
	if _, err := s.svc.ChangeForm(ctx, id, form); err != nil {
		s.internalError(w, "apply form", err)
		return
	}

	_, err = s.svc.StartSubmit(ctx, id)
	switch {
	case err == nil,
		errors.Is(err, listing.ErrValidationFailed),
		errors.Is(err, listing.ErrSubmissionInFlight):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		s.internalError(w, "start submission", err)
	}
}

func (s *Server) handleFieldChange(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	var req fieldChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewInputParsingError(err))
		return
	}
	field, err := listing.ParseField(req.Name)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewInputValidationError(err.Error()))
		return
	}

	st, err := s.svc.ChangeField(r.Context(), id, field, req.Value)
	if errors.Is(err, listing.ErrInvalidListingType) {
		s.writeError(w, http.StatusBadRequest, apperrors.NewInputValidationError(err.Error()))
		return
	}
	if err != nil {
		s.internalError(w, "change field", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (s *Server) handleGenerateAPI(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	st, err := s.svc.StartSubmit(r.Context(), id)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, newStateResponse(st))
	case errors.Is(err, listing.ErrValidationFailed):
		s.writeError(w, http.StatusUnprocessableEntity, apperrors.NewListingValidationError(st.Errors.Strings()))
	case errors.Is(err, listing.ErrSubmissionInFlight):
		s.writeError(w, http.StatusConflict, apperrors.NewSubmissionInFlightError(id))
	default:
		s.internalError(w, "start submission", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	st, err := s.svc.State(r.Context(), id)
	if err != nil {
		s.internalError(w, "load session", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		if err := s.opts.Ready(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to write response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, stdErr *apperrors.StandardError) {
	s.writeJSON(w, status, map[string]interface{}{"error": stdErr})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	stdErr := apperrors.AsStandardError(err)
	s.logger.Error("Request failed", map[string]interface{}{
		"operation": op,
		"errorCode": stdErr.Code,
		"error":     err.Error(),
	})
	s.writeError(w, http.StatusInternalServerError, &apperrors.StandardError{
		Code:      stdErr.Code,
		Message:   "Internal error",
		Retryable: stdErr.Retryable,
		Timestamp: stdErr.Timestamp,
	})
}
