package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/skyrecords/internal/events"
	"github.com/alfredjeanlab/skyrecords/internal/model"
)

// handleListAliases handles GET /v1/aliases?since=<time bucket>. A missing
// bound lists every alias.
func (s *Server) handleListAliases(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be a time bucket (yyyyMMddHHmm)")
			return
		}
		since = n
	}

	aliases, err := s.aliases.LoadLastUpdate(r.Context(), since)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"aliases": aliases})
}

// handleSaveAlias handles POST /v1/aliases.
func (s *Server) handleSaveAlias(w http.ResponseWriter, r *http.Request) {
	var alias model.NetworkAddressAlias
	if err := json.NewDecoder(r.Body).Decode(&alias); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.aliases.Save(r.Context(), &alias); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.publish(r.Context(), events.TopicAliasSaved, func(h events.Header) any {
		return events.AliasSaved{Header: h, Alias: &alias}
	})
	writeJSON(w, http.StatusCreated, &alias)
}
