package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Statistics holds app stats for ops.
type Statistics struct {
	version   string
	container bool
	runtime   string
	platform  string
	called    uint64
	started   time.Time
	status    map[int]uint64
	mu        *sync.RWMutex
}

// Maintenance holds app maintenance mode infos.
type Maintenance struct {
	enabled atomic.Bool
	mu      sync.RWMutex
	message string
	started time.Time
}

// APIHandler defines the API handler.
type APIHandler struct {
	logger        *zap.Logger
	config        *Config
	stats         *Statistics
	mode          *Maintenance
	clock         Clocker
	idsHandler    UIDHandler
	validator     *TokenValidator
	cache         *QueryCache
	bookService   BookServiceProvider
	memberService MemberServiceProvider
}

// NewAPIHandler provides a new instance of APIHandler.
func NewAPIHandler(
	logger *zap.Logger,
	config *Config,
	stats *Statistics,
	clock Clocker,
	idsHandler UIDHandler,
	cache *QueryCache,
	bs BookServiceProvider,
	ms MemberServiceProvider,
) *APIHandler {
	m := &Maintenance{}
	m.enabled.Store(false)
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	api := &APIHandler{
		logger:        logger,
		config:        config,
		stats:         stats,
		mode:          m,
		clock:         clock,
		idsHandler:    idsHandler,
		cache:         cache,
		bookService:   bs,
		memberService: ms,
	}
	if config != nil && config.Auth.Enabled {
		api.validator = NewTokenValidator(&config.Auth, clock)
	}
	return api
}

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		StatusResponse{
			RequestID: requestID,
			Status:    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			Message:   "Hello. Library catalog api is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// NotFound serves the json error of unknown routes.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		errResp := NewAPIError(requestID, http.StatusNotFound, "the requested resource does not exist.", EmptyData)
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
	})
}

// sendError writes the error envelope and logs the sending failure if any.
func (api *APIHandler) sendError(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	errResp := NewAPIError(requestID, status, message, data)
	if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// sendFailure maps a service error to its http response. Persistence and
// unexpected failures only expose a generic message, details stay in logs.
func (api *APIHandler) sendFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	var verr ValidationError
	switch {
	case errors.As(err, &verr):
		api.logger.Info(message, zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, message+": invalid request", verr)
	case errors.Is(err, ErrBookNotFound):
		api.logger.Info(message, zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusNotFound, "book does not exist", EmptyData)
	case errors.Is(err, ErrMemberNotFound):
		api.logger.Info(message, zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusNotFound, "member does not exist", EmptyData)
	case errors.Is(err, ErrAuthorNotFound):
		api.logger.Info(message, zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, message+": invalid request", ValidationError{"authorId": "author does not exist"})
	default:
		api.logger.Error(message, zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, message, EmptyData)
	}
}

// decodeBody reads the json payload into v. It sends a bad request
// response and returns false when the payload is missing or malformed.
func (api *APIHandler) decodeBody(w http.ResponseWriter, r *http.Request, message string, v interface{}) bool {
	if err := DecodeRequestBody(r, v); err != nil {
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		api.logger.Info(message, zap.String("request.id", requestID), zap.Error(err))
		reason := "invalid json payload"
		if errors.Is(err, errEmptyBody) {
			reason = errEmptyBody.Error()
		}
		api.sendError(w, r, http.StatusBadRequest, message+": "+reason, EmptyData)
		return false
	}
	return true
}

// sendResponse writes the success envelope and logs the sending failure if any.
func (api *APIHandler) sendResponse(w http.ResponseWriter, r *http.Request, status int, message string, total *int, data interface{}) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	resp := GenericResponse(requestID, status, message, total, data)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
