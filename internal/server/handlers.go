package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/pipeline"
	"github.com/koustreak/askdb/internal/speech"
)

type askRequest struct {
	Database string `json:"database"`
	Query    string `json:"query"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind"`
	Outcome *pipeline.Outcome `json:"outcome,omitempty"`
}

func (s *Server) handleDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := s.svc.Databases(r.Context())
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if dbs == nil {
		dbs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"databases": dbs})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Schema(r.Context(), chi.URLParam(r, "db"))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.PreviewLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errs.New(errs.ErrKindInvalidInput, "limit must be a non-negative integer"), nil)
			return
		}
		limit = n
	}

	set, err := s.svc.Preview(r.Context(), chi.URLParam(r, "db"), chi.URLParam(r, "table"), limit)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrKindInvalidInput, "invalid request body", err), nil)
		return
	}

	out, err := s.svc.Run(r.Context(), pipeline.Request{Source: req.Database, Query: req.Query})
	if err != nil {
		s.writeError(w, r, err, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAskVoice(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxAudioBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: "audio exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
				Kind:  errs.ErrKindInvalidInput.String(),
			})
			return
		}
		s.writeError(w, r, errs.Wrap(errs.ErrKindInvalidInput, "cannot read audio", err), nil)
		return
	}
	if len(data) == 0 {
		s.writeError(w, r, errs.New(errs.ErrKindInvalidInput, "audio body is empty"), nil)
		return
	}

	audio := speech.Audio{Data: data, MIMEType: audioType(r.Header.Get("Content-Type"), data)}
	out, err := s.svc.RunSpoken(r.Context(), r.URL.Query().Get("database"), audio, nil)
	if err != nil {
		s.writeError(w, r, err, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// audioType trusts an explicit audio Content-Type and sniffs otherwise.
func audioType(header string, data []byte) string {
	mt, _, err := mime.ParseMediaType(header)
	if err == nil && strings.HasPrefix(mt, "audio/") {
		return mt
	}
	return speech.DetectMIME("", data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, out *pipeline.Outcome) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.ErrorWith("request failed", err, map[string]any{
			"path":   r.URL.Path,
			"status": code,
			"kind":   errs.KindOf(err).String(),
		})
	}
	writeJSON(w, code, errorResponse{
		Error:   errs.Display(err),
		Kind:    errs.KindOf(err).String(),
		Outcome: out,
	})
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindInvalidInput, errs.ErrKindExecution:
		return http.StatusBadRequest
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindRejected:
		return http.StatusUnprocessableEntity
	case errs.ErrKindBackend:
		return http.StatusBadGateway
	case errs.ErrKindSourceUnavailable, errs.ErrKindConnectionFailed:
		return http.StatusServiceUnavailable
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
