package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hugolhafner/avro-enricher/internal/metrics"
	"github.com/hugolhafner/avro-enricher/logger"
	"github.com/hugolhafner/avro-enricher/record"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l := logger.FromContext(r.Context(), s.logger)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		s.metrics.ObserveInvocation(metrics.ResultInvalid, time.Since(start), 0, 0)

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "batch exceeds 6MB")
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	records, err := record.ParseBatch(raw)
	if err != nil {
		l.Warn("Rejected batch", "error", err)
		s.metrics.ObserveInvocation(metrics.ResultInvalid, time.Since(start), 0, 0)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	decoded, err := s.invoker.Process(r.Context(), records)
	if err != nil {
		s.metrics.ObserveInvocation(metrics.ResultError, time.Since(start), 0, 0)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, len(decoded))
	for i, d := range decoded {
		out[i] = d.ToMap()
	}

	body, err := json.Marshal(out)
	if err != nil {
		l.Error("Encoding response failed", "error", err)
		s.metrics.ObserveInvocation(metrics.ResultError, time.Since(start), 0, 0)
		writeError(w, http.StatusInternalServerError, "encode response: "+err.Error())
		return
	}

	s.metrics.ObserveInvocation(metrics.ResultSuccess, time.Since(start), len(decoded), len(records)-len(decoded))
	writeBody(w, http.StatusOK, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	body, err := json.Marshal(errorResponse{Error: msg})
	if err != nil {
		body = []byte(`{"error":"internal error"}`)
	}
	writeBody(w, status, body)
}
