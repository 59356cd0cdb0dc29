// Package gateway serves a small read-only status dashboard for an
// in-flight driver.Run, plus a single CSRF-protected POST endpoint that
// cancels it.
package gateway

import (
	"context"
	"crypto/rand"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/phogolabs/parcello"
	log "github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	_ "github.com/sahib/flare/internal/assets"
)

// rate caps /cancel well below anything a single extraction run would ever
// trigger; it only ever needs to fire once per run.
var rate = limiter.Rate{
	Period: 1 * time.Minute,
	Limit:  30,
}

var statusPage = template.Must(template.New("status").Parse(`<!doctype html>
<html><head><title>xp3flare status</title>
<link rel="stylesheet" href="/static/style.css"></head>
<body>
<h1>xp3flare extraction in progress</h1>
<p>Bytes written so far: {{.Bytes}}</p>
<form method="POST" action="/cancel">
  <input type="hidden" name="gorilla.csrf.Token" value="{{.CSRFToken}}">
  <button type="submit">Cancel</button>
</form>
</body></html>`))

// Server is a minimal HTTP server over one driver.Run invocation.
type Server struct {
	addr   string
	cancel context.CancelFunc
	bytes  *uint64

	srv *http.Server
}

// New returns a gateway that reports progress and can cancel the run via
// cancel. Progress is read from Set, which the caller updates as jobs
// complete (e.g. from driver.Pool.Bytes.Size()).
func New(addr string, cancel context.CancelFunc) *Server {
	var b uint64
	return &Server{addr: addr, cancel: cancel, bytes: &b}
}

// Set records the number of bytes extracted so far, for the status page.
func (s *Server) Set(n uint64) {
	atomic.StoreUint64(s.bytes, n)
}

type csrfErrorHandler struct{}

func (csrfErrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Warnf("gateway: csrf check failed: %v", csrf.FailureReason(r))
	w.WriteHeader(http.StatusForbidden)
}

// Handler builds the full route tree (CSRF protection, rate limiting,
// gzip), split out from Start so it can be exercised directly in tests
// without binding a real listener.
func (s *Server) Handler() http.Handler {
	store := memory.NewStore()
	limiterMw := stdlib.NewMiddleware(limiter.New(store, rate))

	router := mux.NewRouter()

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		statusPage.Execute(w, struct {
			Bytes     uint64
			CSRFToken string
		}{
			Bytes:     atomic.LoadUint64(s.bytes),
			CSRFToken: csrf.Token(r),
		})
	}).Methods(http.MethodGet)

	router.Handle("/cancel", limiterMw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.cancel()
		w.WriteHeader(http.StatusNoContent)
	}))).Methods(http.MethodPost)

	router.PathPrefix("/static/").Handler(http.FileServer(parcello.ManagerAt("/")))

	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		log.Warnf("gateway: failed to generate csrf key: %v", err)
	}

	return gziphandler.GzipHandler(csrf.Protect(
		csrfKey,
		csrf.ErrorHandler(csrfErrorHandler{}),
		csrf.Secure(false),
	)(router))
}

// Start begins serving in the background; it does not block.
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("gateway: serve failed: %v", err)
		}
	}()
}

// Close shuts the server down.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
