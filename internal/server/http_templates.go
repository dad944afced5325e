package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/skyrecords/internal/events"
	"github.com/alfredjeanlab/skyrecords/internal/model"
)

// handleListTemplates handles GET /v1/templates.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	includeDisabled := false
	if v := r.URL.Query().Get("include_disabled"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "include_disabled must be a boolean")
			return
		}
		includeDisabled = b
	}

	templates, err := s.templates.GetAllTemplates(r.Context(), includeDisabled)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// handleGetTemplate handles GET /v1/templates/{name}.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.templates.GetTemplate(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleCreateTemplate handles POST /v1/templates.
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var setting model.DashboardSetting
	if err := json.NewDecoder(r.Body).Decode(&setting); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	st, err := s.templates.AddTemplate(r.Context(), &setting)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.publish(r.Context(), events.TopicTemplateCreated, func(h events.Header) any {
		return events.TemplateCreated{Header: h, Template: &setting}
	})
	writeJSON(w, http.StatusCreated, st)
}

// handleChangeTemplate handles PUT /v1/templates/{name}. The name in the
// path wins over any id in the body.
func (s *Server) handleChangeTemplate(w http.ResponseWriter, r *http.Request) {
	var setting model.DashboardSetting
	if err := json.NewDecoder(r.Body).Decode(&setting); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	setting.ID = r.PathValue("name")

	st, err := s.templates.ChangeTemplate(r.Context(), &setting)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if st.Status {
		s.publish(r.Context(), events.TopicTemplateChanged, func(h events.Header) any {
			return events.TemplateChanged{Header: h, Template: &setting}
		})
	}
	writeChangeStatus(w, st)
}

// handleDisableTemplate handles POST /v1/templates/{name}/disable.
func (s *Server) handleDisableTemplate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	st, err := s.templates.DisableTemplate(r.Context(), name)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if st.Status {
		s.publish(r.Context(), events.TopicTemplateDisabled, func(h events.Header) any {
			return events.TemplateDisabled{Header: h, Name: name}
		})
	}
	writeChangeStatus(w, st)
}

// writeChangeStatus writes st, as 404 when the template does not exist.
func writeChangeStatus(w http.ResponseWriter, st *model.TemplateChangeStatus) {
	code := http.StatusOK
	if !st.Status && st.Message == model.MessageTemplateNotFound {
		code = http.StatusNotFound
	}
	writeJSON(w, code, st)
}
