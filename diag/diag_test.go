package diag

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollector(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	var forwarded []Entry
	c := NewCollector().Forward(reporterFunc(func(e Entry) { forwarded = append(forwarded, e) }))

	Reportf(c, KindTruncated, "accessor", 3, "clamped to %d components", 7)
	Reportf(c, KindZeroFilled, "accessor", 4, "no bufferView")

	if got := len(c.Entries()); got != 2 {
		t.Fatalf("len(Entries())=%d; expected 2", got)
	}
	if !c.Has(KindTruncated, "accessor", 3) {
		t.Errorf("truncation entry missing")
	}
	if c.Has(KindTruncated, "accessor", 4) {
		t.Errorf("unexpected truncation entry for accessor 4")
	}
	if len(forwarded) != 2 {
		t.Errorf("forwarded %d entries; expected 2", len(forwarded))
	}
	if logs.Len() != 2 {
		t.Errorf("logged %d entries; expected 2", logs.Len())
	}
	if s := c.Entries()[0].String(); !strings.Contains(s, "clamped to 7") {
		t.Errorf("Entry.String()=%q", s)
	}
}

func TestReportfNil(t *testing.T) {
	Reportf(nil, KindRepaired, "primitive", 0, "ignored")
	Discard.Report(Entry{})
}

type reporterFunc func(Entry)

func (f reporterFunc) Report(e Entry) { f(e) }
