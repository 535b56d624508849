// Package broadcast streams the frames and state transitions of the engine to
// WAMP subscribers, typically browsers connected over WebSocket.
package broadcast

import (
	"context"
	"net/http"

	"github.com/gammazero/nexus/v3/client"
	"github.com/gammazero/nexus/v3/router"
	"github.com/gammazero/nexus/v3/wamp"
	"github.com/mosaicnetworks/synapse/src/render"
	"github.com/sirupsen/logrus"
)

// Topics on which events are published.
const (
	// FrameTopic events carry the generation and a canonical JSON frame.
	FrameTopic = "synapse.frame"
	// StateTopic events carry the generation and the name of the new state.
	StateTopic = "synapse.state"
)

// Server runs a WAMP router, serves it over WebSocket, and publishes on it
// through a local client.
type Server struct {
	address    string
	realm      string
	router     router.Router
	publisher  *client.Client
	httpServer *http.Server
	logger     *logrus.Entry
}

// NewServer instantiates a Server which can be run at the specified address.
func NewServer(address string, realm string, logger *logrus.Entry) (*Server, error) {
	routerConfig := &router.Config{
		RealmConfigs: []*router.RealmConfig{
			{
				URI:           wamp.URI(realm),
				AnonymousAuth: true,
			},
		},
	}

	nxr, err := router.NewRouter(routerConfig, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := client.ConnectLocal(nxr, client.Config{
		Realm:  realm,
		Logger: logger,
	})
	if err != nil {
		nxr.Close()
		return nil, err
	}

	wss := router.NewWebsocketServer(nxr)

	res := &Server{
		address:   address,
		realm:     realm,
		router:    nxr,
		publisher: publisher,
		httpServer: &http.Server{
			Handler: wss,
			Addr:    address,
		},
		logger: logger,
	}

	return res, nil
}

// Run starts the WebSocket server. This is a blocking call.
func (s *Server) Run() error {
	s.logger.WithFields(logrus.Fields{
		"address": s.address,
		"realm":   s.realm,
	}).Debug("Serving broadcast")

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.WithError(err).Error("Run")
		return err
	}
	return nil
}

// Shutdown stops the WebSocket server, the local client and the router.
func (s *Server) Shutdown() {
	defer s.router.Close()

	if err := s.publisher.Close(); err != nil {
		s.logger.WithError(err).Debug("Closing publisher")
	}

	if err := s.httpServer.Shutdown(context.Background()); err != nil {
		s.logger.WithError(err).Error("Shutting down http server")
	}
}

// Addr returns the address of the server.
func (s *Server) Addr() string {
	return s.address
}

// Realm ...
func (s *Server) Realm() string {
	return s.realm
}

// LocalClient connects a new client to the router without going through the
// network. The caller closes it.
func (s *Server) LocalClient() (*client.Client, error) {
	return client.ConnectLocal(s.router, client.Config{
		Realm:  s.realm,
		Logger: s.logger,
	})
}

// PublishState publishes a state transition.
func (s *Server) PublishState(generation int, state string) error {
	return s.publisher.Publish(StateTopic, nil, wamp.List{generation, state}, nil)
}

// PublishFrame publishes the display list of a layer.
func (s *Server) PublishFrame(generation int, frame render.Frame) error {
	data, err := frame.Marshal()
	if err != nil {
		return err
	}
	return s.publisher.Publish(FrameTopic, nil, wamp.List{generation, string(data)}, nil)
}
