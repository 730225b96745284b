package webutils

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFloatsMarshal(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	var tests = []struct {
		in   Floats
		want string
	}{
		{nil, `null`},
		{Floats{}, `[]`},
		{Floats{1, 0.5, -2}, `[1,0.5,-2]`},
		{Floats{nan, 1, inf, -inf}, `[null,1,null,null]`},
		{Floats{1e21, 0.1}, `[1e+21,0.1]`},
	}
	for _, test := range tests {
		got, err := json.Marshal(test.in)
		if err != nil {
			t.Errorf("%v: %v", test.in, err)
		} else if string(got) != test.want {
			t.Errorf("%v: got %s; expected %s", test.in, got, test.want)
		}
	}
}

func TestWriteJsonNonFinite(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJson(rec, struct{ Values Floats }{Floats{float32(math.NaN()), 2}})

	if rec.Code != http.StatusOK {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `{"Values":[null,2]}` {
		t.Errorf("body %s", got)
	}
}
