package webutils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
	"github.com/mogaika/gltf_browser/glb"
	"github.com/mogaika/gltf_browser/vfs"
)

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	if _, err := io.Copy(w, in); err != nil {
		diag.Logger().Warn("writing file response", zap.String("file", name), zap.Error(err))
	}
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	WriteResult(w, res)
}

func WriteText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	WriteResult(w, []byte(text))
}

func WriteResult(w http.ResponseWriter, data []byte) {
	if _, err := w.Write(data); err != nil {
		diag.Logger().Warn("writing response", zap.Error(err))
	}
}

// StatusCode maps lookup errors to 404, undecodable assets to 422 and
// everything else to 500.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, vfs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrMalformedDocument), errors.Is(err, glb.ErrContainerFormat):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func WriteError(w http.ResponseWriter, err error) {
	WriteErrorCode(w, StatusCode(err), err)
}

func WriteErrorCode(w http.ResponseWriter, code int, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr != nil {
		diag.Logger().Error("marshaling error response", zap.NamedError("cause", err), zap.Error(merr))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	diag.Logger().Debug("http error", zap.Int("code", code), zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	WriteResult(w, data)
}
