// Package web serves the todo RPC endpoints and the change feed socket.
package web

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shipfast/livesync/feed"
	"github.com/shipfast/livesync/gateway"
	"github.com/shipfast/livesync/internal/ratelimit"
	"github.com/shipfast/livesync/internal/session"
	"github.com/shipfast/livesync/store"
	"github.com/shipfast/livesync/todo"
)

// Options configures the HTTP handler.
type Options struct {
	Gateway  *gateway.Gateway
	Store    *store.Store
	Hub      *feed.Hub
	Sessions *session.Manager
	Logger   *zap.Logger

	// DevRoutes enables /dev/seed and /dev/reset.
	DevRoutes bool

	// APILimit requests per APIWindow are allowed per client for RPC
	// calls. AuthLimit/AuthWindow bound failed authentication attempts.
	APILimit   int
	APIWindow  time.Duration
	AuthLimit  int
	AuthWindow time.Duration
}

// Handler routes todo RPC calls, the websocket change feed, and the
// health endpoint.
type Handler struct {
	gateway     *gateway.Gateway
	store       *store.Store
	hub         *feed.Hub
	sessions    *session.Manager
	logger      *zap.Logger
	mux         *http.ServeMux
	apiLimiter  *ratelimit.Limiter
	authLimiter *ratelimit.Limiter
}

// NewHandler creates the handler and registers its routes.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	apiLimit, apiWindow := opts.APILimit, opts.APIWindow
	if apiLimit <= 0 {
		apiLimit = 100
	}
	if apiWindow <= 0 {
		apiWindow = time.Minute
	}
	authLimit, authWindow := opts.AuthLimit, opts.AuthWindow
	if authLimit <= 0 {
		authLimit = 5
	}
	if authWindow <= 0 {
		authWindow = 15 * time.Minute
	}

	handler := &Handler{
		gateway:     opts.Gateway,
		store:       opts.Store,
		hub:         opts.Hub,
		sessions:    opts.Sessions,
		logger:      logger,
		apiLimiter:  ratelimit.New(apiLimit, apiWindow),
		authLimiter: ratelimit.New(authLimit, authWindow),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/todos/list", handler.rpc(handler.handleList))
	mux.HandleFunc("/rpc/todos/create", handler.rpc(handler.handleCreate))
	mux.HandleFunc("/rpc/todos/update", handler.rpc(handler.handleUpdate))
	mux.HandleFunc("/rpc/todos/toggle", handler.rpc(handler.handleToggle))
	mux.HandleFunc("/rpc/todos/delete", handler.rpc(handler.handleDelete))
	mux.HandleFunc("/ws/todos", handler.handleWatch)
	mux.HandleFunc("/healthz", handler.handleHealthz)
	if opts.DevRoutes {
		mux.HandleFunc("/dev/seed", handler.dev(handler.handleSeed))
		mux.HandleFunc("/dev/reset", handler.dev(handler.handleReset))
	}
	handler.mux = mux
	return handler
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(recorder, r)
	h.logger.Debug("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", recorder.status),
		zap.Duration("duration", time.Since(start)),
	)
}

type rpcHandler func(w http.ResponseWriter, r *http.Request, principal todo.Principal)

// rpc wraps an RPC endpoint with method, rate-limit, and auth checks.
func (h *Handler) rpc(fn rpcHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		clientIP := requestClientIP(r)
		principal, err := h.authenticate(r)
		if err != nil {
			decision := h.authLimiter.Allow(clientIP)
			setRateLimitHeaders(w, decision)
			if !decision.Allowed {
				writeTooManyRequests(w, decision)
				return
			}
			writeResult(w, todo.Failure(todo.ErrorUnauthorized, "authentication required"))
			return
		}
		decision := h.apiLimiter.Allow(clientIP)
		setRateLimitHeaders(w, decision)
		if !decision.Allowed {
			writeTooManyRequests(w, decision)
			return
		}
		fn(w, r, principal)
	}
}

// dev wraps a development-only endpoint. These still require a valid
// session but skip rate limiting.
func (h *Handler) dev(fn rpcHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		principal, err := h.authenticate(r)
		if err != nil {
			writeResult(w, todo.Failure(todo.ErrorUnauthorized, "authentication required"))
			return
		}
		fn(w, r, principal)
	}
}

var errNoToken = errors.New("missing bearer token")

func (h *Handler) authenticate(r *http.Request) (todo.Principal, error) {
	token := bearerToken(r)
	if token == "" {
		return todo.Principal{}, errNoToken
	}
	return h.sessions.Verify(token)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if value, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(value)
	}
	// Browsers cannot set headers on websocket dials, so the feed
	// endpoint also accepts the token as a query parameter.
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, principal todo.Principal) {
	var request listRequest
	if !readJSON(w, r, &request) {
		return
	}
	mode, err := todo.ParseFilterMode(request.Filter)
	if err != nil {
		writeResult(w, todo.Failure(todo.ErrorValidation, "invalid filter mode"))
		return
	}
	todos, result := h.gateway.List(r.Context(), principal)
	if !result.OK {
		writeJSON(w, resultStatus(result), listResponse{Success: false, Error: result.Err, Message: result.Message})
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Todos: todo.Filter(todos, mode)})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, principal todo.Principal) {
	var request createRequest
	if !readJSON(w, r, &request) {
		return
	}
	writeResult(w, h.gateway.Create(r.Context(), principal, request.Title, request.Options))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, principal todo.Principal) {
	var request updateRequest
	if !readJSON(w, r, &request) {
		return
	}
	writeResult(w, h.gateway.Update(r.Context(), principal, request.ID, request.Options))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request, principal todo.Principal) {
	var request toggleRequest
	if !readJSON(w, r, &request) {
		return
	}
	writeResult(w, h.gateway.Toggle(r.Context(), principal, request.ID))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, principal todo.Principal) {
	var request deleteRequest
	if !readJSON(w, r, &request) {
		return
	}
	writeResult(w, h.gateway.Delete(r.Context(), principal, request.ID))
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSeed(w http.ResponseWriter, r *http.Request, principal todo.Principal) {
	if _, err := h.store.Seed(r.Context(), principal); err != nil {
		h.logger.Warn("seed failed", zap.Error(err))
		writeResult(w, todo.Failure(todo.ErrorTransient, "backing store unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request, principal todo.Principal) {
	if err := h.store.Reset(r.Context()); err != nil {
		h.logger.Warn("reset failed", zap.Error(err))
		writeResult(w, todo.Failure(todo.ErrorTransient, "backing store unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func setRateLimitHeaders(w http.ResponseWriter, decision ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))
}

func writeTooManyRequests(w http.ResponseWriter, decision ratelimit.Decision) {
	retryAfter := time.Until(decision.Reset).Seconds()
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter)))
	writeJSON(w, http.StatusTooManyRequests, todo.Failure(todo.ErrorTransient, "rate limit exceeded"))
}

// requestClientIP resolves the client address, trusting proxy headers
// when present.
func requestClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrade reach the underlying connection.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
