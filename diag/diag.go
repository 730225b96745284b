// Package diag collects non-fatal conditions met while decoding an asset.
package diag

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Kind string

const (
	KindTruncated        Kind = "truncated"
	KindRepaired         Kind = "repaired"
	KindZeroFilled       Kind = "zero-filled"
	KindBufferShort      Kind = "buffer-short"
	KindUnknownAttribute Kind = "unknown-attribute"
	KindBoundsComputed   Kind = "bounds-computed"
	KindFallbackStream   Kind = "fallback-stream"
)

// Entry describes one soft condition. Subject names the entity kind
// ("accessor", "buffer", "primitive") and Index its position in the document.
type Entry struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Index   int    `json:"index"`
	Detail  string `json:"detail"`
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s %d: %s", e.Kind, e.Subject, e.Index, e.Detail)
}

type Reporter interface {
	Report(e Entry)
}

// Discard drops every entry.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Entry) {}

// Collector keeps entries in arrival order and logs them as warnings.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	log     *zap.Logger
	forward Reporter
}

func NewCollector() *Collector {
	return &Collector{log: Logger()}
}

// Forward makes the collector also pass entries to r.
func (c *Collector) Forward(r Reporter) *Collector {
	c.forward = r
	return c
}

func (c *Collector) Report(e Entry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()

	c.log.Warn("gltf diagnostic",
		zap.String("kind", string(e.Kind)),
		zap.String("subject", e.Subject),
		zap.Int("index", e.Index),
		zap.String("detail", e.Detail))

	if c.forward != nil {
		c.forward.Report(e)
	}
}

func (c *Collector) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Has reports whether an entry of kind k was recorded for subject/index.
func (c *Collector) Has(k Kind, subject string, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Kind == k && e.Subject == subject && e.Index == index {
			return true
		}
	}
	return false
}

// Reportf is a shortcut used by the decoding packages.
func Reportf(r Reporter, k Kind, subject string, index int, format string, a ...interface{}) {
	if r == nil {
		return
	}
	r.Report(Entry{Kind: k, Subject: subject, Index: index, Detail: fmt.Sprintf(format, a...)})
}
