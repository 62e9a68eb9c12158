package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/facebookgo/clock"

	"wizdraft/internal/api"
	"wizdraft/internal/app"
	"wizdraft/internal/blobstore"
	"wizdraft/internal/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

type testServer struct {
	*Server
	app   *app.App
	clock *clock.Mock
}

func newTestServer(t *testing.T, opts ...app.Option) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Blobs.Backend = blobstore.BackendMemory
	cfg.Attachments.MaxBytes = 1024

	c := clock.NewMock()
	c.Add(1000 * time.Hour)
	a, err := app.Open(context.Background(), &cfg, nil, append([]app.Option{app.WithClock(c)}, opts...)...)
	if err != nil {
		t.Fatalf("open app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return &testServer{Server: New("127.0.0.1:0", a, nil), app: a, clock: c}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) upload(t *testing.T, selector, filename, mediaType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if mediaType != "" {
		if err := mw.WriteField("media_type", mediaType); err != nil {
			t.Fatalf("write media_type: %v", err)
		}
	}
	part, err := mw.CreateFormFile("content", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/draft/attachments/"+selector, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.do(t, req)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func pngData(n int) []byte {
	data := make([]byte, n)
	copy(data, pngHeader)
	return data
}

type brokenStore struct {
	*blobstore.Memory
}

func (b brokenStore) Init(context.Context) error {
	return errors.Join(blobstore.ErrUnavailable, errors.New("storage quota exceeded"))
}

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:7345")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:7345" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		_, err := ListenAddr("http://0.0.0.0:7345")
		if err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:7345")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:7345" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	t.Run("mints an id", func(t *testing.T) {
		w := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if len(w.Header().Get(requestIDHeader)) != 36 {
			t.Fatalf("expected uuid request id, got %q", w.Header().Get(requestIDHeader))
		}
	})

	t.Run("keeps a well-formed client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/draft", nil)
		req.Header.Set(requestIDHeader, "wizard-42")
		w := ts.do(t, req)
		if got := w.Header().Get(requestIDHeader); got != "wizard-42" {
			t.Fatalf("expected client id, got %q", got)
		}
	})

	t.Run("replaces a malformed client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/draft", nil)
		req.Header.Set(requestIDHeader, "bad id\twith spaces")
		w := ts.do(t, req)
		if got := w.Header().Get(requestIDHeader); got == "bad id\twith spaces" || got == "" {
			t.Fatalf("expected replacement id, got %q", got)
		}
	})
}

func TestInfo(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/info", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	info := decodeBody[api.InfoResponse](t, w)
	if !info.AttachmentsEnabled || !info.Rehydrated {
		t.Fatalf("expected enabled and rehydrated, got %+v", info)
	}
	if info.BlobBackend != blobstore.BackendMemory || info.MaxAttachmentBytes != 1024 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.SchemaVersion < 1 {
		t.Fatalf("expected migrated schema, got version %d", info.SchemaVersion)
	}
}

func TestDisabledAttachmentsReturnUnavailable(t *testing.T) {
	ts := newTestServer(t, app.WithBlobStore(brokenStore{blobstore.NewMemory()}))

	w := ts.upload(t, "photo", "me.png", "image/png", pngData(32))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (%s)", w.Code, w.Body.String())
	}
	errResp := decodeBody[api.ErrorResponse](t, w)
	if errResp.Code != "unavailable" || errResp.ErrorCode != ErrCodeBlobStoreUnavailable {
		t.Fatalf("unexpected error response: %+v", errResp)
	}

	req := httptest.NewRequest(http.MethodPatch, "/v1/draft", bytes.NewReader([]byte(`{"step":3}`)))
	w = ts.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected draft edits to keep working, got %d (%s)", w.Code, w.Body.String())
	}

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/info", nil))
	info := decodeBody[api.InfoResponse](t, w)
	if info.AttachmentsEnabled || info.DisabledReason == "" {
		t.Fatalf("expected disabled info, got %+v", info)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unavailable", blobstore.ErrUnavailable, http.StatusServiceUnavailable},
		{"op error", &blobstore.OpError{Op: blobstore.OpRead, ID: "1-abcd", Err: errors.New("io")}, http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := asAPIError(domainError(tc.err)).status; got != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, got)
			}
		})
	}
}
