// Package web serves decoded assets as JSON for the browser frontend.
package web

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/loader"
	"github.com/mogaika/gltf_browser/resource"
	"github.com/mogaika/gltf_browser/status"
	"github.com/mogaika/gltf_browser/vfs"
)

// Server keeps every asset it decoded; assets are immutable once loaded
// and shared between requests.
type Server struct {
	dir    vfs.Directory
	hub    *status.Hub
	loader *loader.Loader

	mu     sync.Mutex
	assets map[string]*loader.Asset
}

// NewServer serves assets found under dir. opts are passed to the loader,
// the resource loader and status reporter are set here.
func NewServer(dir vfs.Directory, hub *status.Hub, opts ...loader.Option) *Server {
	opts = append([]loader.Option{
		loader.WithResources(resource.NewDirLoader(dir)),
		loader.WithReporter(hub),
	}, opts...)
	return &Server{
		dir:    dir,
		hub:    hub,
		loader: loader.New(opts...),
		assets: make(map[string]*loader.Asset),
	}
}

// Asset loads file once; failed loads are retried on the next request.
// The load outlives ctx cancellation since its result is shared.
func (s *Server) Asset(ctx context.Context, file string) (*loader.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.assets[file]; ok {
		return a, nil
	}

	s.hub.Progress(0, "loading %s", file)
	a, err := s.loader.Load(context.WithoutCancel(ctx), file)
	if err != nil {
		s.hub.Error("loading %s: %v", file, err)
		diag.Logger().Warn("asset load failed", zap.String("file", file), zap.Error(err))
		return nil, err
	}
	s.hub.Progress(1, "loaded %s: %d meshes, %d failed primitives", file, len(a.Meshes), len(a.Failed()))
	s.assets[file] = a
	return a, nil
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/files", s.HandlerFiles)
	r.HandleFunc("/json/asset/{file:.+}/mesh/{mesh:[0-9]+}/{prim:[0-9]+}", s.HandlerPrimitive)
	r.HandleFunc("/json/asset/{file:.+}/accessor/{accessor:[0-9]+}", s.HandlerAccessor)
	r.HandleFunc("/json/asset/{file:.+}", s.HandlerAsset)
	r.HandleFunc("/dump/asset/{file:.+}", s.HandlerDump)
	r.HandleFunc("/ws/status", s.HandlerStatus)
	return r
}

// Handler is the router with panic recovery and access logging.
func (s *Server) Handler() http.Handler {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router())
	return handlers.LoggingHandler(os.Stdout, h)
}

func StartServer(addr string, s *Server) error {
	diag.Logger().Info("starting server", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}
