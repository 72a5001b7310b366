// Package server serves dump snapshots over HTTP.
//
// Applications post documents to the server, which stores them as
// snapshots and renders them as collapsible var-dump trees in the browser.
// Expanding a node in the page posts an activation event back; the server
// toggles the node in its live tree and answers with the re-rendered
// fragment, so children are built lazily once per node just as in the
// terminal viewer.
//
// Routes:
//
//	POST   /dumps                             store a document (?format=, ?name=)
//	GET    /dumps                             list snapshots (?limit=)
//	GET    /dumps/{id}                        HTML page for a snapshot
//	POST   /dumps/{id}/nodes/{node}/toggle    toggle a node (?tree=), returns an HTML fragment
//	DELETE /dumps/{id}                        remove a snapshot
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/vardump/pkg/dump"
	"github.com/matzehuels/vardump/pkg/store"
)

// Defaults.
const (
	DefaultAddr     = "127.0.0.1:7070"
	DefaultMaxBody  = 10 << 20
	DefaultMaxTrees = 128
)

// Server renders stored snapshots and keeps their live trees.
type Server struct {
	store    store.Store
	dumper   *dump.Dumper
	logger   *log.Logger
	maxBody  int64
	maxTrees int

	mu    sync.Mutex
	trees map[uuid.UUID]*liveTree
	order []uuid.UUID

	router chi.Router
}

// liveTree guards one tree. Toggling mutates node state, so requests on
// the same snapshot are serialized.
type liveTree struct {
	mu   sync.Mutex
	tree *dump.Tree
}

// Option configures a Server.
type Option func(*Server)

// WithDumper sets the dumper used to build trees.
func WithDumper(d *dump.Dumper) Option {
	return func(s *Server) {
		if d != nil {
			s.dumper = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBody limits the size of posted documents.
func WithMaxBody(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// WithMaxTrees bounds how many live trees are kept. The oldest is dropped
// first; it is rebuilt from its snapshot when requested again, with all
// nodes collapsed.
func WithMaxTrees(n int) Option {
	return func(s *Server) { s.maxTrees = n }
}

// New creates a Server backed by st.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:    st,
		logger:   log.Default(),
		maxBody:  DefaultMaxBody,
		maxTrees: DefaultMaxTrees,
		trees:    make(map[uuid.UUID]*liveTree),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dumper == nil {
		s.dumper = dump.New(nil, dump.WithLogger(s.logger))
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Route("/dumps", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleShow)
			r.Delete("/", s.handleDelete)
			r.Post("/nodes/{node}/toggle", s.handleToggle)
		})
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving dumps", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// tree returns the live tree for id, dumping the stored snapshot on first
// use.
func (s *Server) tree(ctx context.Context, id uuid.UUID) (*liveTree, error) {
	s.mu.Lock()
	lt, ok := s.trees[id]
	s.mu.Unlock()
	if ok {
		return lt, nil
	}

	snap, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := snap.Decode()
	if err != nil {
		return nil, err
	}
	t, err := s.dumper.Dump(v)
	if err != nil {
		return nil, err
	}
	return s.remember(id, t), nil
}

// remember caches t for id unless another request got there first, in
// which case the existing tree wins.
func (s *Server) remember(id uuid.UUID, t *dump.Tree) *liveTree {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lt, ok := s.trees[id]; ok {
		return lt
	}
	lt := &liveTree{tree: t}
	s.trees[id] = lt
	s.order = append(s.order, id)

	for s.maxTrees > 0 && len(s.order) > s.maxTrees {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.trees, oldest)
	}
	return lt
}

func (s *Server) forget(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.trees, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
