package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmdmdm-nz/zeroconf"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/chaindbg/internal/runtime"
	"github.com/dmdmdm-nz/chaindbg/pkg/version"
)

const (
	// ServiceType is the mDNS service the stream endpoint is advertised as.
	ServiceType = "_chaindbg._tcp"

	// clientQueueDepth bounds the lines held for a slow stream client.
	clientQueueDepth = 1024
)

// Service serves health endpoints and streams rendered lines to websocket
// clients. It is also a sink: every line written to it goes to all
// connected clients.
type Service struct {
	listen    string
	advertise bool

	mu      sync.Mutex
	clients map[int]*runtime.SubQueue[string]
	nextID  int
	closed  bool

	server *http.Server
	mdns   *zeroconf.Server
}

func NewService(listen string, advertise bool) *Service {
	return &Service{
		listen:    listen,
		advertise: advertise,
		clients:   make(map[int]*runtime.SubQueue[string]),
	}
}

// Start serves until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listen, err)
	}

	log.Infof("Starting line stream API service at %s", ln.Addr())
	defer log.Info("Stopping line stream API service")

	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	if s.advertise {
		if err := s.register(ln.Addr()); err != nil {
			log.WithError(err).Warn("Failed to advertise line stream over mDNS")
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects all stream clients and withdraws the mDNS record.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	for id, q := range s.clients {
		q.Close()
		delete(s.clients, id)
	}
	if s.mdns != nil {
		s.mdns.Shutdown()
		s.mdns = nil
	}
	return nil
}

// Write queues line for every connected client. Clients that fall behind by
// more than clientQueueDepth lines lose the excess.
func (s *Service) Write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, q := range s.clients {
		if !q.Enqueue(line) {
			log.WithFields(log.Fields{
				"client":  id,
				"dropped": q.Dropped(),
			}).Debug("Stream client is behind, dropping line")
		}
	}
}

// Handler returns the HTTP routes of the service.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Add("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(VersionInfo{
			Version:    version.Version,
			CommitHash: version.CommitHash,
			BuildTime:  version.BuildTime,
		})
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to encode version info: %v", err), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/ws/lines", func(w http.ResponseWriter, r *http.Request) {
		StreamLines(s, w, r)
	})
	return mux
}

// VersionInfo is the body of GET /version.
type VersionInfo struct {
	Version    string `json:"version"`
	CommitHash string `json:"commitHash"`
	BuildTime  string `json:"buildTime"`
}

func (s *Service) subscribe() (<-chan string, func(), bool) {
	sub := runtime.NewBoundedSubQueue[string](16, clientQueueDepth)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Close()
		return nil, nil, false
	}
	id := s.nextID
	s.nextID++
	s.clients[id] = sub
	s.mu.Unlock()

	sub.SetPaused(false)

	unsub := func() {
		s.mu.Lock()
		if q, ok := s.clients[id]; ok {
			delete(s.clients, id)
			q.Close()
		}
		s.mu.Unlock()
	}
	return sub.Chan(), unsub, true
}

func (s *Service) register(addr net.Addr) error {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("unexpected listener address %v", addr)
	}

	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = "chaindbg"
	}

	server, err := zeroconf.Register(instance, ServiceType, "local.", tcpAddr.Port,
		[]string{"path=/ws/lines", "version=" + version.Version}, nil)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"instance": instance,
		"service":  ServiceType,
		"port":     tcpAddr.Port,
	}).Info("Advertising line stream over mDNS")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		server.Shutdown()
		return nil
	}
	s.mdns = server
	return nil
}
