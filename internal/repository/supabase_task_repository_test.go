package repository

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

type stubConfig struct {
	url string
	key string
}

func (c *stubConfig) GetServerPort() string      { return "8080" }
func (c *stubConfig) GetUploadPath() string      { return "./uploads" }
func (c *stubConfig) GetResultsPath() string     { return "./results" }
func (c *stubConfig) GetCacheDir() string        { return "./cache" }
func (c *stubConfig) GetCacheTTLSeconds() int    { return 3600 }
func (c *stubConfig) GetMaxFileSize() int64      { return 1 << 20 }
func (c *stubConfig) GetLogLevel() string        { return "info" }
func (c *stubConfig) GetSupabaseURL() string     { return c.url }
func (c *stubConfig) GetSupabaseKey() string     { return c.key }
func (c *stubConfig) GetOCRBinary() string       { return "tesseract" }
func (c *stubConfig) GetOCRTimeoutSeconds() int  { return 120 }
func (c *stubConfig) GetMaxWorkers() int         { return 2 }
func (c *stubConfig) GetMaxRetries() int         { return 3 }

func newServerBackedRepository(t *testing.T, handler http.HandlerFunc) *SupabaseTaskRepository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewSupabaseClient(&stubConfig{url: server.URL, key: "test-key"}, &mockLogger{})
	if err := client.Initialize(); err != nil {
		t.Fatalf("failed to initialize client: %v", err)
	}
	return NewSupabaseTaskRepository(client, &mockLogger{}).(*SupabaseTaskRepository)
}

func TestSupabaseList_OrdersNewestFirstAndLimits(t *testing.T) {
	var query url.Values
	repo := newServerBackedRepository(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	})

	records, err := repo.List(20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}

	if got := query.Get("order"); got != "created_at.desc" {
		t.Errorf("expected order=created_at.desc, got %q", got)
	}
	if got := query.Get("limit"); got != "20" {
		t.Errorf("expected limit=20, got %q", got)
	}
}

func TestSupabaseList_NoLimitStillOrders(t *testing.T) {
	var query url.Values
	repo := newServerBackedRepository(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	})

	if _, err := repo.List(0); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if got := query.Get("order"); got != "created_at.desc" {
		t.Errorf("expected order=created_at.desc, got %q", got)
	}
	if query.Has("limit") {
		t.Errorf("expected no limit param, got %q", query.Get("limit"))
	}
}
