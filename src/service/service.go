// Package service exposes the state of the effect over a small HTTP API.
package service

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/mosaicnetworks/synapse/src/common"
	"github.com/mosaicnetworks/synapse/src/config"
	"github.com/mosaicnetworks/synapse/src/history"
	"github.com/mosaicnetworks/synapse/src/render"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

// Effect is what the service needs from the engine.
type Effect interface {
	Stats() map[string]string
	Frames() []render.Frame
	Resize(width, height float64) error
	Settings() config.Settings
	UpdateAttributes(attrs config.Attributes) (config.Settings, error)
	Store() history.Store
}

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string
	effect      Effect
	mux         *http.ServeMux
	server      *http.Server
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, effect Effect, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		effect:      effect,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering Synapse API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(http.MethodGet, s.GetStats))
	s.mux.HandleFunc("/frames", s.makeHandler(http.MethodGet, s.GetFrames))
	s.mux.HandleFunc("/history", s.makeHandler(http.MethodGet, s.GetHistory))
	s.mux.HandleFunc("/history/", s.makeHandler(http.MethodGet, s.GetRecord))
	s.mux.HandleFunc("/resize", s.makeHandler(http.MethodPost, s.PostResize))
	s.mux.HandleFunc("/attributes", s.makeHandler(http.MethodPost, s.PostAttributes))
}

func (s *Service) makeHandler(method string, fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", method)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fn(w, r)
	}
}

// Handler returns the handler of the API, for embedding in another server.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.Lock()
	s.server = &http.Server{
		Addr:    s.bindAddress,
		Handler: s.mux,
	}
	server := s.server
	s.Unlock()

	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving Synapse API")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error(err)
	}
}

// Shutdown stops the server started by Serve.
func (s *Service) Shutdown(ctx context.Context) error {
	s.Lock()
	server := s.server
	s.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.effect.Stats())
}

// GetFrames returns the display lists of both layers.
func (s *Service) GetFrames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.effect.Frames())
}

// GetHistory returns the records following the optional skip parameter.
func (s *Service) GetHistory(w http.ResponseWriter, r *http.Request) {
	skip := -1

	if param := r.URL.Query().Get("skip"); param != "" {
		var err error
		skip, err = strconv.Atoi(param)
		if err != nil {
			s.logger.WithError(err).Errorf("Parsing skip parameter %s", param)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	records, err := s.effect.Store().Records(skip)
	if err != nil {
		s.logger.WithError(err).Errorf("Retrieving records after %d", skip)
		http.Error(w, err.Error(), storeErrStatus(err))
		return
	}

	s.writeJSON(w, records)
}

// GetRecord ...
func (s *Service) GetRecord(w http.ResponseWriter, r *http.Request) {
	param := strings.TrimPrefix(r.URL.Path, "/history/")

	generation, err := strconv.Atoi(param)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing generation parameter %s", param)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := s.effect.Store().GetRecord(generation)
	if err != nil {
		s.logger.WithError(err).Errorf("Retrieving record %d", generation)
		http.Error(w, err.Error(), storeErrStatus(err))
		return
	}

	s.writeJSON(w, record)
}

// PostResize queues a new surface size.
func (s *Service) PostResize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	width, err := strconv.ParseFloat(q.Get("width"), 64)
	if err != nil {
		http.Error(w, "invalid width", http.StatusBadRequest)
		return
	}
	height, err := strconv.ParseFloat(q.Get("height"), 64)
	if err != nil {
		http.Error(w, "invalid height", http.StatusBadRequest)
		return
	}

	if err := s.effect.Resize(width, height); err != nil {
		s.logger.WithError(err).Warn("Resize")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// PostAttributes queues new attributes. Only the attributes present in the
// query change; an unknown or invalid attribute rejects the whole request.
func (s *Service) PostAttributes(w http.ResponseWriter, r *http.Request) {
	values := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			values[k] = v[len(v)-1]
		}
	}

	attrs, err := config.AttributesFromMap(values)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := s.effect.UpdateAttributes(attrs); err != nil {
		s.logger.WithError(err).Warn("Attributes")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Service) writeJSON(w http.ResponseWriter, v interface{}) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	if err := codec.NewEncoder(b, jh).Encode(v); err != nil {
		s.logger.WithError(err).Error("Encoding response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(b.Bytes())
}

func storeErrStatus(err error) int {
	switch {
	case common.IsStore(err, common.KeyNotFound):
		return http.StatusNotFound
	case common.IsStore(err, common.TooLate):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
