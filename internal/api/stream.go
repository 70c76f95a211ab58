package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/courseforge/site/internal/curriculum"
	"github.com/courseforge/site/internal/leadgen"
)

const (
	streamTimeout   = 3 * time.Minute
	requestReadWait = 30 * time.Second
)

// streamFrame is one server message on the curriculum stream.
type streamFrame struct {
	Type       string                       `json:"type"`
	Content    string                       `json:"content,omitempty"`
	Token      string                       `json:"token,omitempty"`
	Curriculum *curriculum.ParsedCurriculum `json:"curriculum,omitempty"`
	Error      string                       `json:"error,omitempty"`
	Status     int                          `json:"status,omitempty"`
}

// handleCurriculumStream upgrades to a WebSocket, reads one curriculum
// request and streams the generation back as chunk frames followed by a
// result or error frame.
func (s *Server) handleCurriculumStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts(s.origins),
	})
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx, cancel := context.WithTimeout(r.Context(), streamTimeout)
	defer cancel()

	readCtx, readCancel := context.WithTimeout(ctx, requestReadWait)
	var raw json.RawMessage
	err = wsjson.Read(readCtx, conn, &raw)
	readCancel()
	if err != nil {
		slog.Debug("websocket request read failed", "error", err)
		conn.Close(websocket.StatusPolicyViolation, "expected a curriculum request")
		return
	}

	if err := s.validator.validate(schemaCurriculum, raw); err != nil {
		s.sendError(ctx, conn, http.StatusBadRequest, err.Error())
		return
	}
	var req leadgen.CurriculumRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendError(ctx, conn, http.StatusBadRequest, "malformed JSON body")
		return
	}

	res, err := s.svc.StreamCurriculum(ctx, req, clientKey(r, s.proxies), func(chunk string) error {
		return wsjson.Write(ctx, conn, streamFrame{Type: "chunk", Content: chunk})
	})
	if err != nil {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) || ctx.Err() != nil {
			slog.Info("curriculum stream abandoned by client", "error", err)
			return
		}
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("curriculum stream failed", "status", status, "error", err)
		}
		s.sendError(ctx, conn, status, msg)
		return
	}

	if err := wsjson.Write(ctx, conn, streamFrame{
		Type:       "result",
		Token:      res.Token,
		Curriculum: &res.Curriculum,
	}); err != nil {
		slog.Warn("sending curriculum result failed", "error", err)
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) sendError(ctx context.Context, conn *websocket.Conn, status int, msg string) {
	if err := wsjson.Write(ctx, conn, streamFrame{Type: "error", Error: msg, Status: status}); err != nil {
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// originHosts converts allowed origins to the host patterns the WebSocket
// origin check matches against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
			continue
		}
		hosts = append(hosts, o)
	}
	return hosts
}
