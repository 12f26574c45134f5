package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"mc.projecter/config"
	sm "mc.projecter/models"
)

const (
	DefaultAddr = config.DefaultAddr

	maxRequestBytes = 8 << 20
)

func GetHttpServer(sc ServiceContext, addr string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}

	return &http.Server{
		Addr:           addr,
		Handler:        GetRouter(sc),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   2 * time.Minute, // projections with many paths take a while
		MaxHeaderBytes: 1 << 20,
	}
}

func GetRouter(sc ServiceContext) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.Recoverer, requestLogger)

	router.Get("/api/ping", ping)
	router.Post("/api/fit", func(w http.ResponseWriter, r *http.Request) {
		var req sm.FitRequest
		handle(w, r, &req, func() (*sm.FitResponse, error) { return sc.WithContext(r.Context()).FitDistribution(req) })
	})
	router.Post("/api/simulate", func(w http.ResponseWriter, r *http.Request) {
		var req sm.SimulatePathRequest
		handle(w, r, &req, func() (*sm.SimulatePathResponse, error) { return sc.WithContext(r.Context()).SimulatePath(req) })
	})
	router.Post("/api/projection", func(w http.ResponseWriter, r *http.Request) {
		var req sm.ProjectionRequestSettings
		handle(w, r, &req, func() (*sm.ProjectionResponse, error) { return sc.WithContext(r.Context()).RunProjection(req) })
	})
	router.Post("/api/savings", func(w http.ResponseWriter, r *http.Request) {
		var req sm.SavingsPlanRequest
		handle(w, r, &req, func() (*sm.SavingsPlanResponse, error) { return sc.WithContext(r.Context()).RunSavingsPlan(req) })
	})
	router.Handle("/metrics", sc.Metrics.Handler())

	return router
}

func ping(w http.ResponseWriter, r *http.Request) {
	message := map[string]string{"message": "pong"}
	writeJSON(w, http.StatusOK, sm.GetServiceResponseOk(&message, middleware.GetReqID(r.Context())))
}

// handle decodes the body into req, runs the operation and writes the service response envelope
func handle[T any](w http.ResponseWriter, r *http.Request, req any, run func() (*T, error)) {
	requestId := middleware.GetReqID(r.Context())

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, sm.GetServiceResponseError(err, requestId))
		return
	}

	res, err := run()
	if err != nil {
		status := statusFromError(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("requestId", requestId).Str("path", r.URL.Path).Msg("request failed")
		}
		writeJSON(w, status, sm.GetServiceResponseError(err, requestId))
		return
	}

	writeJSON(w, http.StatusOK, sm.GetServiceResponseOk(res, requestId))
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, config.ErrMissingKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrFitFailure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("error writing response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info().
			Str("requestId", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("handled request")
	})
}
