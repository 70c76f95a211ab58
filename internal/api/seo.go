package api

import (
	"encoding/json"
	"net/http"

	"github.com/courseforge/site/internal/leadgen"
)

func (s *Server) handleCreateSEO(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r, schemaSEO)
	if !ok {
		return
	}
	var req leadgen.SEORequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	res, err := s.svc.GenerateSEO(r.Context(), req, clientKey(r, s.proxies))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetSEO(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.GetSEO(r.Context(), r.PathValue("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
