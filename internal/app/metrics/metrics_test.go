package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/metrics", "/metrics"},
		{"/api/v1/products", "/api/v1/products"},
		{"/api/v1/products/abc-123", "/api/v1/products/:id"},
		{"/api/v1/stores/s1/members/u9", "/api/v1/stores/:id/members/:id"},
		{"/api/v1/sales/77/void", "/api/v1/sales/:id/void"},
	}
	for _, tc := range cases {
		if got := canonicalPath(tc.in); got != tc.want {
			t.Errorf("canonicalPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRecordHelpersDoNotPanic(t *testing.T) {
	RecordSale("cash", 2500)
	RecordSale("", 0)
	RecordVoid()
	RecordStockReceived(12)
	RecordStockReceived(-1)
	RecordReplayOp("applied")
	RecordReplayOp("")
	SubscriberConnected()
	SubscriberDisconnected()
}

func TestInstrumentHandlerRecordsRequests(t *testing.T) {
	handler := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/p1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "sedifex_http_requests_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected sedifex_http_requests_total to be registered")
	}
}
