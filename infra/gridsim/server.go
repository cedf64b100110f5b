package gridsim

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/cleancharge/infra/carbonintensity"
	"github.com/kilianp07/cleancharge/infra/logger"
)

// Server exposes Generator output on the Carbon Intensity API paths.
type Server struct {
	mu       sync.Mutex
	addr     string
	gen      *Generator
	log      logger.Logger
	requests *prometheus.CounterVec
	served   prometheus.Counter
}

// NewServer creates a feed server using the default Prometheus registerer.
func NewServer(addr string, gen *Generator) *Server {
	return NewServerWithRegistry(addr, gen, prometheus.DefaultRegisterer)
}

// NewServerWithRegistry creates a feed server and registers metrics on the
// provided registerer. If reg is nil the default registerer is used.
func NewServerWithRegistry(addr string, gen *Generator, reg prometheus.Registerer) *Server {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	log := logger.New("gridsim-server")

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gridsim_requests_total",
		Help: "Requests served by the synthetic feed",
	}, []string{"endpoint", "status"})
	served := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gridsim_periods_served_total",
		Help: "Settlement periods returned by the synthetic feed",
	})

	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				requests = exist
			} else {
				log.Errorf("existing collector for gridsim_requests_total has wrong type %T", are.ExistingCollector)
			}
		}
	}
	if err := reg.Register(served); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(prometheus.Counter); ok {
				served = exist
			} else {
				log.Errorf("existing collector for gridsim_periods_served_total has wrong type %T", are.ExistingCollector)
			}
		}
	}

	return &Server{addr: addr, gen: gen, log: log, requests: requests, served: served}
}

// Handler returns the feed routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/generation/{from}/{to}", s.handleNational).Methods(http.MethodGet)
	r.HandleFunc("/regional/intensity/{from}/{to}/regionid/{id:[0-9]+}", s.handleRegional).Methods(http.MethodGet)
	r.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("pong")); err != nil {
			s.log.Errorf("write pong: %v", err)
		}
	})
	return r
}

func (s *Server) handleNational(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.parseRange(w, r, "national")
	if !ok {
		return
	}
	samples := s.gen.Series("national", from, to)
	body := carbonintensity.NationalResponse{Data: make([]carbonintensity.Period, len(samples))}
	for i, smp := range samples {
		body.Data[i] = carbonintensity.FromSample(smp, false)
	}
	s.write(w, "national", len(samples), body)
}

func (s *Server) handleRegional(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.parseRange(w, r, "regional")
	if !ok {
		return
	}
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		s.fail(w, "regional", http.StatusBadRequest, "invalid region id")
		return
	}
	samples := s.gen.Series(idStr, from, to)
	region := carbonintensity.Region{RegionID: id, ShortName: "Region " + idStr, Data: make([]carbonintensity.Period, len(samples))}
	for i, smp := range samples {
		region.Data[i] = carbonintensity.FromSample(smp, false)
	}
	s.write(w, "regional", len(samples), carbonintensity.RegionalResponse{Data: region})
}

func (s *Server) parseRange(w http.ResponseWriter, r *http.Request, endpoint string) (time.Time, time.Time, bool) {
	vars := mux.Vars(r)
	from, err := carbonintensity.ParseTime(vars["from"])
	if err != nil {
		s.fail(w, endpoint, http.StatusBadRequest, err.Error())
		return time.Time{}, time.Time{}, false
	}
	to, err := carbonintensity.ParseTime(vars["to"])
	if err != nil {
		s.fail(w, endpoint, http.StatusBadRequest, err.Error())
		return time.Time{}, time.Time{}, false
	}
	if !to.After(from) {
		s.fail(w, endpoint, http.StatusBadRequest, "to must be after from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (s *Server) write(w http.ResponseWriter, endpoint string, periods int, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Errorf("encode %s response: %v", endpoint, err)
		s.requests.WithLabelValues(endpoint, "error").Inc()
		return
	}
	s.requests.WithLabelValues(endpoint, "ok").Inc()
	s.served.Add(float64(periods))
}

func (s *Server) fail(w http.ResponseWriter, endpoint string, status int, msg string) {
	s.requests.WithLabelValues(endpoint, "bad_request").Inc()
	http.Error(w, msg, status)
}

// Addr returns the listening address once Start has been called.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
		cancel()
	}()
	s.log.Infof("grid feed mock listening on %s", ln.Addr())
	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
