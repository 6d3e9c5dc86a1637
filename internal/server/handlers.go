package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"voicematch/internal/api"
	"voicematch/internal/compare"
	"voicematch/internal/history"
	"voicematch/internal/logging"
	"voicematch/internal/services"
)

// multipartMemory caps in-memory multipart parsing; larger parts
// spill to temp files.
const multipartMemory = 8 << 20

// Handler returns the routed HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	token := s.cfg.Paths.APIToken

	mux.HandleFunc("POST /compare", s.handleCompare)
	mux.HandleFunc("POST /compare_voices/", s.handleCompareVoices)
	mux.HandleFunc("POST /compare_voices", s.handleCompareVoices)
	mux.HandleFunc("POST /api/compare", authMiddleware(token, s.handleAPICompare))
	mux.HandleFunc("GET /api/status", authMiddleware(token, s.handleStatus))
	mux.HandleFunc("GET /api/history", authMiddleware(token, s.handleHistory))
	mux.HandleFunc("GET /api/history/{id}", authMiddleware(token, s.handleHistoryItem))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.registerFrontend(mux)

	return withRequestContext(s.logger, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	result, err := s.runCompare(w, r)
	if err != nil {
		writeJSON(w, services.HTTPStatus(err), api.DetailError{Detail: services.Message(err)})
		return
	}
	writeJSON(w, http.StatusOK, api.CompareResponse{Similarity: result.Similarity})
}

func (s *Server) handleCompareVoices(w http.ResponseWriter, r *http.Request) {
	result, err := s.runCompare(w, r)
	if err != nil {
		writeJSON(w, services.HTTPStatus(err), api.Error{Error: services.Message(err)})
		return
	}
	writeJSON(w, http.StatusOK, api.CompareVoicesResponse{
		SimilarityScore: result.Score,
		SameSpeaker:     result.SameSpeaker,
	})
}

func (s *Server) handleAPICompare(w http.ResponseWriter, r *http.Request) {
	result, err := s.runCompare(w, r)
	if err != nil {
		writeJSON(w, services.HTTPStatus(err), api.Error{Error: services.Message(err)})
		return
	}
	writeJSON(w, http.StatusOK, api.FromResult(result, s.cfg.Matching.ScorePrecision))
}

// runCompare decodes the file1/file2 multipart fields and runs a comparison.
func (s *Server) runCompare(w http.ResponseWriter, r *http.Request) (compare.Result, error) {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	limit := 2*s.cfg.MaxUploadBytes() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			return compare.Result{}, services.Wrap(services.ErrTooLarge, "upload", "parse form",
				"Request body exceeds "+strconv.FormatInt(limit>>20, 10)+" MB", nil)
		}
		return compare.Result{}, services.Wrap(services.ErrValidation, "upload", "parse form",
			"Expected a multipart form with file1 and file2", err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	first, closeFirst, err := formInput(r, "file1")
	if err != nil {
		return compare.Result{}, err
	}
	defer closeFirst()
	second, closeSecond, err := formInput(r, "file2")
	if err != nil {
		return compare.Result{}, err
	}
	defer closeSecond()

	return s.compare.Compare(r.Context(), compare.Request{First: first, Second: second})
}

func formInput(r *http.Request, field string) (compare.Input, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return compare.Input{}, func() {}, services.Wrap(services.ErrValidation, "upload", field,
				"Missing upload "+field, nil)
		}
		return compare.Input{}, func() {}, services.Wrap(services.ErrValidation, "upload", field,
			"Could not read upload "+field, err)
	}
	return compare.Input{Name: uploadName(header), Reader: file, Size: header.Size}, func() { _ = file.Close() }, nil
}

func uploadName(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Filename
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Status(r.Context()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := history.Filter{Limit: 50}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, api.Error{Error: "invalid limit"})
			return
		}
		filter.Limit = limit
	}
	if raw := strings.TrimSpace(query.Get("outcome")); raw != "" {
		outcome, ok := history.ParseOutcome(strings.ToLower(raw))
		if !ok {
			writeJSON(w, http.StatusBadRequest, api.Error{Error: "invalid outcome"})
			return
		}
		filter.Outcome = outcome
	}

	items, err := s.historySvc.List(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, "history list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, api.HistoryListResponse{Items: items})
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	item, err := s.historySvc.Describe(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "history lookup failed", err)
		return
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, api.Error{Error: "comparison not found"})
		return
	}
	writeJSON(w, http.StatusOK, api.HistoryItemResponse{Item: *item})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), msg, "api_request_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check history database access"),
	)
	writeJSON(w, http.StatusInternalServerError, api.Error{Error: "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", logging.Error(err))
	}
}
