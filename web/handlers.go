package web

import (
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/utils"
	"github.com/mogaika/gltf_browser/vfs"
	"github.com/mogaika/gltf_browser/webutils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// IsAssetFile matches .gltf and .glb names, optionally gzip or zstd packed.
func IsAssetFile(name string) bool {
	name = strings.ToLower(name)
	for _, suffix := range []string{".gz", ".zst", ".zstd"} {
		name = strings.TrimSuffix(name, suffix)
	}
	switch path.Ext(name) {
	case ".gltf", ".glb":
		return true
	}
	return false
}

func (s *Server) HandlerFiles(w http.ResponseWriter, r *http.Request) {
	files := make([]string, 0)
	err := vfs.Walk(s.dir, func(p string, f vfs.File) error {
		if IsAssetFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, files)
}

func (s *Server) HandlerAsset(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	a, err := s.Asset(r.Context(), file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, summarizeAsset(file, a))
}

func (s *Server) HandlerPrimitive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	file := vars["file"]
	mesh, _ := strconv.Atoi(vars["mesh"])
	prim, _ := strconv.Atoi(vars["prim"])

	a, err := s.Asset(r.Context(), file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	res, err := a.Primitive(mesh, prim)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusNotFound, err)
		return
	}
	webutils.WriteJson(w, primitiveDetails(a.Document, res))
}

func (s *Server) HandlerAccessor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	file := vars["file"]
	index, _ := strconv.Atoi(vars["accessor"])

	a, err := s.Asset(r.Context(), file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	if index >= len(a.Document.Accessors) {
		webutils.WriteErrorCode(w, http.StatusNotFound,
			errors.Errorf("accessor %d out of range [0,%d)", index, len(a.Document.Accessors)))
		return
	}

	q := r.URL.Query()
	normalized, _ := strconv.ParseBool(q.Get("normalized"))
	data, err := accessorDetails(a.Engine, index, q.Get("view"), normalized)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusUnprocessableEntity, err)
		return
	}
	webutils.WriteJson(w, data)
}

// HandlerDump writes the decoded document as a spew dump.
func (s *Server) HandlerDump(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	a, err := s.Asset(r.Context(), file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteText(w, utils.SDump(a.Document))
}

func (s *Server) HandlerStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		diag.Logger().Warn("status upgrade failed", zap.Error(err))
		return
	}
	s.hub.Attach(conn)
}
