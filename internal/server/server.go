package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"babelfeed/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	listLimit       = 100
	keywordCloudTop = 50
)

type Server struct {
	store  store.Store
	logger *zap.Logger
	router *mux.Router
	server *http.Server
}

func NewServer(st store.Store, logger *zap.Logger) *Server {
	s := &Server{
		store:  st,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Static Files (CSS)
	s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// App Routes
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/keyword/{keyword}", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/read", s.handleSetRead).Methods("POST")
}

// Start launches the HTTP server
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Web server listening", zap.String("addr", port))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleIndex renders the article list, optionally narrowed to one
// keyword (path) and to unread articles (?unread=1).
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		Keyword:    mux.Vars(r)["keyword"],
		UnreadOnly: r.URL.Query().Get("unread") == "1",
		Limit:      listLimit,
	}

	articles, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to list articles", zap.Error(err))
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	keywords, err := s.store.KeywordCounts(r.Context(), keywordCloudTop)
	if err != nil {
		s.logger.Error("Failed to load keyword counts", zap.Error(err))
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	tmpl, err := template.ParseFiles("templates/layout.html", "templates/index.html")
	if err != nil {
		s.logger.Error("Template error", zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Articles":        articles,
		"Keywords":        keywords,
		"SelectedKeyword": filter.Keyword,
		"UnreadOnly":      filter.UnreadOnly,
		"Flash":           getFlash(w, r),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error("Template execution failed", zap.Error(err))
	}
}

// handleSetRead flips the read flag of one article and bounces back to
// the referring page.
func (s *Server) handleSetRead(w http.ResponseWriter, r *http.Request) {
	link := r.FormValue("link")
	if link == "" {
		http.Error(w, "link is required", http.StatusBadRequest)
		return
	}
	read := r.FormValue("read") != "0"

	if err := s.store.SetRead(r.Context(), link, read); err != nil {
		if err == store.ErrNotFound {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("Failed to update read flag", zap.String("link", link), zap.Error(err))
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	if read {
		setFlash(w, r, "Marked as read")
	} else {
		setFlash(w, r, "Marked as unread")
	}

	back := r.Header.Get("Referer")
	if back == "" {
		back = "/"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
