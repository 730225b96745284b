package utils

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/diag"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
	spewConfig.MaxDepth = 8
}

func Dump(w io.Writer, a ...interface{}) {
	fmt.Fprintln(w, spewConfig.Sdump(a...))
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

func LogDump(msg string, a ...interface{}) {
	if ce := diag.Logger().Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(zap.String("dump", spewConfig.Sdump(a...)))
	}
}
