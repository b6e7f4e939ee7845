package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"docindex/internal/api"
	"docindex/internal/auth"
	"docindex/internal/blobstore"
	"docindex/internal/cache"
	"docindex/internal/notify"
	"docindex/internal/store"
)

const (
	testTeamSecret  = "team-secret-123"
	testAdminSecret = "admin-secret-456"
	testPublicURL   = "https://docs.example.com"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (f *fakeSender) SendMessage(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return f.err
}

func (f *fakeSender) sent() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Message(nil), f.messages...)
}

type testServer struct {
	*Server
	handler http.Handler
	store   *store.Store
	blobs   *blobstore.LocalStore
	cache   *cache.MemoryCache
	sender  *fakeSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, func(*Options) {})
}

func newTestServerWith(t *testing.T, configure func(*Options)) *testServer {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	blobs, err := blobstore.NewLocalStore(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}

	responses := cache.NewMemoryCache(16)
	sender := &fakeSender{}
	opts := Options{
		PublicURL: testPublicURL + "/",
		Resolver: auth.Resolver{
			Team:  auth.PlainSecret(testTeamSecret),
			Admin: auth.PlainSecret(testAdminSecret),
		},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Cache:    responses,
		Telegram: sender,
		Metrics:  NewMetrics(),
	}
	configure(&opts)

	srv := New(st, blobs, opts)
	return &testServer{
		Server:  srv,
		handler: srv.Handler(),
		store:   st,
		blobs:   blobs,
		cache:   responses,
		sender:  sender,
	}
}

func (ts *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

// drain waits for background tasks such as cache writes.
func (ts *testServer) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.waitBackground(ctx); err != nil {
		t.Fatalf("wait background: %v", err)
	}
}

func authedRequest(method, target string, body io.Reader, secret string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	return req
}

func jsonRequest(method, target, body, secret string) *http.Request {
	req := authedRequest(method, target, strings.NewReader(body), secret)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type uploadPart struct {
	filename    string
	contentType string
	content     []byte
}

func multipartBody(t *testing.T, part *uploadPart, tags string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if tags != "" {
		if err := mw.WriteField("tags", tags); err != nil {
			t.Fatalf("write tags field: %v", err)
		}
	}
	if part != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+part.filename+`"`)
		if part.contentType != "" {
			header.Set("Content-Type", part.contentType)
		}
		pw, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := pw.Write(part.content); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, filename string, content []byte, tags string) string {
	t.Helper()

	body, contentType := multipartBody(t, &uploadPart{filename: filename, content: content}, tags)
	req := authedRequest(http.MethodPost, "/api/upload", body, testAdminSecret)
	req.Header.Set("Content-Type", contentType)
	w := ts.serve(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected upload 200, got %d (%s)", w.Code, w.Body.String())
	}

	var resp api.UploadResponse
	decodeBody(t, w, &resp)
	if !resp.Success || !store.ValidFileID(resp.ID) {
		t.Fatalf("unexpected upload response: %+v", resp)
	}
	return resp.ID
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d (%s)", status, w.Code, w.Body.String())
	}
	var errResp api.ErrorResponse
	decodeBody(t, w, &errResp)
	if errResp.Success {
		t.Fatal("expected success=false in error envelope")
	}
	if errResp.ErrorCode != code {
		t.Fatalf("expected error_code %d, got %d", code, errResp.ErrorCode)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.HealthResponse
	decodeBody(t, w, &resp)
	if resp.Status != "ok" {
		t.Fatalf("unexpected health status %q", resp.Status)
	}
}

func TestRoleGating(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name   string
		method string
		target string
		secret string
		status int
		code   int
	}{
		{"guest search", http.MethodGet, "/api/search?q=x", "", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"wrong secret search", http.MethodGet, "/api/search?q=x", "nope", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"guest upload", http.MethodPost, "/api/upload", "", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"team upload", http.MethodPost, "/api/upload", testTeamSecret, http.StatusForbidden, ErrCodeForbidden},
		{"team tags", http.MethodPatch, "/api/file/" + store.NewFileID() + "/tags", testTeamSecret, http.StatusForbidden, ErrCodeForbidden},
		{"team delete", http.MethodDelete, "/api/file/" + store.NewFileID(), testTeamSecret, http.StatusForbidden, ErrCodeForbidden},
		{"team info", http.MethodGet, "/api/info", testTeamSecret, http.StatusForbidden, ErrCodeForbidden},
		{"guest file", http.MethodGet, "/api/file/" + store.NewFileID(), "", http.StatusUnauthorized, ErrCodeUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.serve(authedRequest(tc.method, tc.target, nil, tc.secret))
			assertErrorCode(t, w, tc.status, tc.code)
		})
	}
}

func TestAdminPassesTeamGate(t *testing.T) {
	ts := newTestServer(t)

	w := ts.serve(authedRequest(http.MethodGet, "/api/search", nil, testAdminSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("expected admin search 200, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestHighestCredentialWins(t *testing.T) {
	ts := newTestServer(t)

	req := authedRequest(http.MethodGet, "/api/info", nil, testAdminSecret)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: "stale"})
	w := ts.serve(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected bearer admin to win over stale cookie, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestInfoCountsFiles(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, "a.txt", []byte("alpha"), "one two")
	ts.upload(t, "b.txt", []byte("beta!"), "two")

	w := ts.serve(authedRequest(http.MethodGet, "/api/info", nil, testAdminSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var info api.InfoResponse
	decodeBody(t, w, &info)
	if info.TotalFiles != 2 || info.TotalTags != 3 || info.DistinctTags != 2 || info.TotalBytes != 10 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.SchemaVersion < 1 {
		t.Fatalf("expected schema version, got %d", info.SchemaVersion)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.serve(authedRequest(http.MethodGet, "/api/search?q=x", nil, testTeamSecret))

	w := ts.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `docindex_searches_total{source="api"} 1`) {
		t.Fatalf("expected api search counter in metrics output")
	}
	if !strings.Contains(body, `route="GET /api/search"`) {
		t.Fatalf("expected route label in metrics output")
	}
}

func TestShutdownWaitsForBackgroundTasks(t *testing.T) {
	ts := newTestServer(t)

	var mu sync.Mutex
	done := false
	ts.goBackground(context.Background(), "slow", func(ctx context.Context) error {
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		done = true
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ts.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !done {
		t.Fatal("expected shutdown to wait for background task")
	}
}

func TestBackgroundTaskOutlivesRequestContext(t *testing.T) {
	ts := newTestServer(t)

	parent, cancel := context.WithCancel(context.Background())
	cancel()

	errCh := make(chan error, 1)
	ts.goBackground(parent, "detached", func(ctx context.Context) error {
		errCh <- ctx.Err()
		return nil
	})
	ts.drain(t)

	if err := <-errCh; err != nil {
		t.Fatalf("expected detached context, got %v", err)
	}
}
