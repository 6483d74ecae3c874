// Package rpc exposes the marketplace dispatch surface over HTTP. It is a
// thin delivery layer: each request is one atomic engine call, serialized per
// server instance the way the host ledger environment serializes operations
// against a contract.
package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bc1plainview/opnet-audit-kit/abi"
	"github.com/bc1plainview/opnet-audit-kit/core/events"
	"github.com/bc1plainview/opnet-audit-kit/native/market"
	"github.com/bc1plainview/opnet-audit-kit/observability/metrics"
)

// Server delivers calls into the dispatcher and reports the events each call
// emitted.
type Server struct {
	mu         sync.Mutex
	dispatcher *abi.Dispatcher
	emitter    *events.MemoryEmitter
	logger     *slog.Logger
	metrics    *metrics.MarketMetrics
}

// NewServer wires the dispatcher with the emitter the engine publishes to.
// The emitter must be the same instance configured on the engine; the server
// drains it after every call.
func NewServer(dispatcher *abi.Dispatcher, emitter *events.MemoryEmitter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		dispatcher: dispatcher,
		emitter:    emitter,
		logger:     logger,
		metrics:    metrics.Market(),
	}
}

// Handler returns the HTTP routes: POST /call, GET /healthz, GET /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/call", s.handleCall)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type callRequest struct {
	From string `json:"from"`
	Data string `json:"data"`
}

type eventPayload struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

type callResponse struct {
	Result string         `json:"result"`
	Events []eventPayload `json:"events,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !common.IsHexAddress(strings.TrimSpace(req.From)) {
		writeError(w, http.StatusBadRequest, "from is not a hex address")
		return
	}
	caller := common.HexToAddress(strings.TrimSpace(req.From))
	data, err := decodeHex(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "data is not hex calldata")
		return
	}
	method := s.dispatcher.MethodName(data)

	s.mu.Lock()
	result, callErr := s.dispatcher.Dispatch(caller, data)
	emitted := s.emitter.Drain()
	s.mu.Unlock()

	s.metrics.ObserveCall(method, callErr != nil)
	for _, evt := range emitted {
		if evt.Type == market.EventTypeListingSold || evt.Type == market.EventTypeBidAccepted {
			s.metrics.ObserveSettlement()
		}
	}

	if callErr != nil {
		s.logger.Info("call rejected",
			slog.String("method", method),
			slog.String("caller", caller.Hex()),
			slog.String("error", callErr.Error()))
		writeError(w, statusFor(callErr), callErr.Error())
		return
	}

	resp := callResponse{Result: "0x" + hex.EncodeToString(result)}
	for _, evt := range emitted {
		resp.Events = append(resp.Events, eventPayload{Type: evt.Type, Attributes: evt.Attributes})
	}
	s.logger.Debug("call applied",
		slog.String("method", method),
		slog.String("caller", caller.Hex()),
		slog.Int("events", len(resp.Events)))
	writeJSON(w, http.StatusOK, resp)
}

func decodeHex(value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	if trimmed == "" {
		return nil, errors.New("empty calldata")
	}
	return hex.DecodeString(trimmed)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, market.ErrInvalidArgument),
		errors.Is(err, abi.ErrBadCalldata),
		errors.Is(err, abi.ErrUnknownMethod):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, market.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrInactive),
		errors.Is(err, market.ErrNotRegistered):
		return http.StatusConflict
	case errors.Is(err, market.ErrRemoteCallFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
