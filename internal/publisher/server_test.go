package publisher

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"lobd/internal/batch"
	"lobd/internal/book"
	"lobd/internal/config"
)

func TestHandleSnapshotReflectsBookState(t *testing.T) {
	t.Parallel()
	ob := book.NewOrderBook(0.01)
	if _, err := ob.OnAdd("o1", "CBOE", book.Bid, 2.50, 100); err != nil {
		t.Fatalf("OnAdd: %v", err)
	}
	driver := batch.New(ob, make(chan book.Event), nil, 10, time.Hour, testLogger())

	srv := NewServer(config.PublisherConfig{Port: 0}, "TEST", driver, testLogger())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/snapshot", nil)
	srv.handleSnapshot(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}

	var snap Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.BestBid == nil || *snap.BestBid != 2.50 {
		t.Errorf("best bid = %v, want 2.50", snap.BestBid)
	}
	if snap.BidLevels != 1 || snap.AskLevels != 0 {
		t.Errorf("levels = %d/%d, want 1/0", snap.BidLevels, snap.AskLevels)
	}
}

func TestIsOriginAllowedLocalhostWithNoConfig(t *testing.T) {
	t.Parallel()
	if !isOriginAllowed("http://localhost:3000", nil, "api.example.com") {
		t.Error("expected localhost origin to be allowed with no configured allowlist")
	}
}

func TestIsOriginAllowedRejectsUnlistedOrigin(t *testing.T) {
	t.Parallel()
	allowed := []string{"https://dashboard.example.com"}
	if isOriginAllowed("https://evil.example.net", allowed, "api.example.com") {
		t.Error("expected unlisted origin to be rejected")
	}
	if !isOriginAllowed("https://dashboard.example.com", allowed, "api.example.com") {
		t.Error("expected listed origin to be allowed")
	}
}

func TestIsOriginAllowedEmptyOriginPasses(t *testing.T) {
	t.Parallel()
	if !isOriginAllowed("", []string{"https://dashboard.example.com"}, "api.example.com") {
		t.Error("expected empty origin (non-browser client) to pass")
	}
}
