package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/courseforge/site/internal/export"
	"github.com/courseforge/site/internal/leadgen"
)

// readBody reads a bounded request body and validates it against schema.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request, schema string) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	if err := s.validator.validate(schema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return body, true
}

func (s *Server) handleCreateCurriculum(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r, schemaCurriculum)
	if !ok {
		return
	}
	var req leadgen.CurriculumRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	res, err := s.svc.GenerateCurriculum(r.Context(), req, clientKey(r, s.proxies))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetCurriculum(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.GetCurriculum(r.Context(), r.PathValue("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExportCurriculum(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.GetCurriculum(r.Context(), r.PathValue("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	written, err := export.Write(&buf, format, res.Curriculum, res.Raw)
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("exporting %s: %w", format, err))
		return
	}

	w.Header().Set("Content-Type", written.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", written.Filename(res.Curriculum)))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
