package intercept

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/etnz/gfsync/app"
	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/time/rate"
)

// maxBodySize bounds the size of posted responses and HAR files.
const maxBodySize = 64 << 20

// Server receives intercepted responses and user actions over HTTP.
//
// Every controller call runs on the goroutine executing Run, so the
// application state has a single owner.
type Server struct {
	ctl     *app.Controller
	views   *Views
	router  *mux.Router
	limiter *rate.Limiter
	md      goldmark.Markdown
	calls   chan func()
}

// NewServer returns a server driving ctl, which must render into views.
func NewServer(ctl *app.Controller, views *Views) *Server {
	s := &Server{
		ctl:     ctl,
		views:   views,
		router:  mux.NewRouter(),
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 30),
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		calls:   make(chan func()),
	}
	s.router.Use(s.rateLimit, logRequests)
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/views", s.handleViews).Methods(http.MethodGet)
	api.HandleFunc("/responses", s.handleResponse).Methods(http.MethodPost)
	api.HandleFunc("/har", s.handleHAR).Methods(http.MethodPost)
	api.HandleFunc("/platforms/{name}/open", s.handleOpen).Methods(http.MethodPost)
	api.HandleFunc("/actions/reset", s.action(s.ctl.ResetLastTxn)).Methods(http.MethodPost)
	api.HandleFunc("/actions/export", s.handleExport).Methods(http.MethodPost)
	api.HandleFunc("/actions/imported", s.action(s.markImported)).Methods(http.MethodPost)
	api.HandleFunc("/actions/sync", s.handleSync).Methods(http.MethodPost)
	return s
}

// Run executes the controller calls until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.ctl.RenderAll()
	for {
		select {
		case <-ctx.Done():
			return
		case call := <-s.calls:
			call()
		}
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// ListenAndServe runs the event loop and serves addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	log.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// do runs fn on the event loop and waits for its result.
func (s *Server) do(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	select {
	case s.calls <- func() { done <- fn(ctx) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			log.Warn("rate limit exceeded", "method", r.Method, "path", r.URL.Path)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// apiResponse is the body of every API response but views.
type apiResponse struct {
	Status  string   `json:"status"` // "ok" or "error"
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Notices []Notice `json:"notices,omitempty"`
}

func (s *Server) reply(w http.ResponseWriter, err error, data any) {
	resp := apiResponse{Status: "ok", Data: data, Notices: s.views.Drain()}
	code := http.StatusOK
	if err != nil {
		resp.Status, resp.Message = "error", err.Error()
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("cannot write response", "err", err)
	}
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, apiResponse{Status: "error", Message: fmt.Sprintf(format, args...)})
}

// action returns a handler running fn on the event loop.
func (s *Server) action(fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, s.do(r.Context(), fn), nil)
	}
}

// postedResponse is what the browser shim posts for each intercepted response.
type postedResponse struct {
	URL  string `json:"url"`
	Body string `json:"body"`
}

func (s *Server) handleResponse(w http.ResponseWriter, r *http.Request) {
	var p postedResponse
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&p); err != nil {
		badRequest(w, "invalid response: %v", err)
		return
	}
	if p.URL == "" {
		badRequest(w, "url is required")
		return
	}
	err := s.do(r.Context(), func(ctx context.Context) error {
		return s.ctl.ProcessResponse(ctx, p.URL, []byte(p.Body))
	})
	s.reply(w, err, nil)
}

func (s *Server) handleHAR(w http.ResponseWriter, r *http.Request) {
	responses, err := ReadHAR(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	err = s.do(r.Context(), func(ctx context.Context) error {
		return ProcessAll(ctx, s.ctl, responses)
	})
	s.reply(w, err, nil)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var url string
	err := s.do(r.Context(), func(ctx context.Context) error {
		if err := s.ctl.SelectPlatform(ctx, name); err != nil {
			return err
		}
		if p, ok := s.ctl.Table().ByName(name); ok {
			url = p.TxnPageURL
		}
		return nil
	})
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiResponse{Status: "error", Message: err.Error(), Notices: s.views.Drain()})
		return
	}
	s.reply(w, nil, map[string]string{"url": url})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var path string
	err := s.do(r.Context(), func(ctx context.Context) (err error) {
		path, err = s.ctl.Export(ctx)
		return err
	})
	if err != nil {
		s.reply(w, err, nil)
		return
	}
	s.reply(w, nil, map[string]string{"path": path})
}

func (s *Server) markImported(ctx context.Context) error {
	latest, ok := s.ctl.Latest()
	if !ok {
		s.views.Error("No new transaction to mark as imported.")
		return errors.New("no pending transaction")
	}
	return s.ctl.MarkImported(ctx, latest)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dryRun") == "true"
	s.reply(w, s.do(r.Context(), func(ctx context.Context) error { return s.ctl.Sync(ctx, dryRun) }), nil)
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	var views map[app.Target]string
	err := s.do(r.Context(), func(context.Context) error {
		views = s.views.All()
		return nil
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, apiResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, views)
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>gfsync</title></head>
<body>
{{range .Notices}}<p class="notice {{.Level}}">{{.Message}}</p>
{{end}}{{range .Sections}}<section id="{{.ID}}">
{{.HTML}}</section>
{{end}}</body>
</html>
`))

type section struct {
	ID   app.Target
	HTML template.HTML
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var views map[app.Target]string
	var notices []Notice
	err := s.do(r.Context(), func(context.Context) error {
		views, notices = s.views.All(), s.views.Drain()
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	data := struct {
		Notices  []Notice
		Sections []section
	}{Notices: notices}
	for _, target := range app.Targets {
		var buf bytes.Buffer
		if err := s.md.Convert([]byte(views[target]), &buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data.Sections = append(data.Sections, section{ID: target, HTML: template.HTML(buf.String())})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		log.Error("cannot render page", "err", err)
	}
}

// ProcessAll feeds ctl with responses, in order. Responses no platform owns
// are ignored by the controller; failures do not stop the processing.
func ProcessAll(ctx context.Context, ctl *app.Controller, responses []Response) error {
	var errs error
	for _, resp := range responses {
		if resp.Status >= 400 {
			log.Debug("skip failed response", "url", resp.URL, "status", resp.Status)
			continue
		}
		if err := ctl.ProcessResponse(ctx, resp.URL, resp.Body); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", resp.URL, err))
		}
	}
	return errs
}
