package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/Jombinoy/DOC/internal/httpx"
	"github.com/Jombinoy/DOC/internal/storage"
)

// mockStore implements storage.Store for testing.
type mockStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	failOpen  bool
	failClose bool
}

func newMockStore() *mockStore {
	return &mockStore{objects: make(map[string][]byte)}
}

func (m *mockStore) NewWriter(ctx context.Context, key string) (storage.Writer, error) {
	if m.failOpen {
		return nil, errors.New("store rejected writer")
	}
	return &mockWriter{store: m, key: key, failClose: m.failClose}, nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *mockStore) IsAccessible(ctx context.Context) error { return nil }

func (m *mockStore) URI(key string) string { return "mock://" + key }

func (m *mockStore) Close() error { return nil }

func (m *mockStore) get(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key]
}

// mockWriter buffers and commits on Close, like the real backends.
type mockWriter struct {
	store     *mockStore
	key       string
	buf       bytes.Buffer
	failClose bool
	aborted   bool
}

func (w *mockWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *mockWriter) Close() error {
	if w.failClose {
		return errors.New("quota exceeded")
	}
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.objects[w.key] = w.buf.Bytes()
	return nil
}

func (w *mockWriter) Abort() error {
	w.aborted = true
	return nil
}

func newTestWorker(store *mockStore) *Worker {
	return NewWorker(httpx.NewClient(httpx.DefaultOptions()), store, nil)
}

func TestWorkerTransferSuccess(t *testing.T) {
	payload := strings.Repeat("frame-data-", 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	store := newMockStore()
	worker := newTestWorker(store)

	res := worker.Transfer(context.Background(), Request{
		SourceURL:       srv.URL + "/records/g1/g2/video.mp4",
		DestinationPath: "g1_g2.mp4",
	})

	if !res.IsSuccess() {
		t.Fatalf("expected success, got failure: %s", res.Error)
	}
	if res.Size != int64(len(payload)) {
		t.Errorf("size = %d, want %d", res.Size, len(payload))
	}
	if res.DestinationPath != "g1_g2.mp4" {
		t.Errorf("destination = %q, want g1_g2.mp4", res.DestinationPath)
	}
	if got := store.get("g1_g2.mp4"); string(got) != payload {
		t.Errorf("stored %d bytes, want %d", len(got), len(payload))
	}
}

func TestWorkerTransferExpiredSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "signature expired", http.StatusForbidden)
	}))
	defer srv.Close()

	store := newMockStore()
	worker := newTestWorker(store)

	res := worker.Transfer(context.Background(), Request{
		SourceURL:       srv.URL + "/expired.mp4",
		DestinationPath: "expired.mp4",
	})

	if res.IsSuccess() {
		t.Fatal("expected failure for 403 response")
	}
	if res.Error == "" {
		t.Error("failure result must carry a non-empty error message")
	}
	if !strings.Contains(res.Error, "forbidden") {
		t.Errorf("error %q should mention forbidden", res.Error)
	}
	if exists, _ := store.Exists(context.Background(), "expired.mp4"); exists {
		t.Error("no object should be committed for a failed fetch")
	}
}

func TestWorkerTransferUnreachableSource(t *testing.T) {
	store := newMockStore()
	worker := newTestWorker(store)

	res := worker.Transfer(context.Background(), Request{
		SourceURL:       "http://127.0.0.1:1/nothing.mp4",
		DestinationPath: "nothing.mp4",
	})

	if res.IsSuccess() {
		t.Fatal("expected failure for unreachable source")
	}
	if res.SourceURL != "http://127.0.0.1:1/nothing.mp4" {
		t.Errorf("failure must carry its source url, got %q", res.SourceURL)
	}
}

func TestWorkerTransferDestinationRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "payload")
	}))
	defer srv.Close()

	store := newMockStore()
	store.failOpen = true
	worker := newTestWorker(store)

	res := worker.Transfer(context.Background(), Request{
		SourceURL:       srv.URL + "/v.mp4",
		DestinationPath: "v.mp4",
	})

	if res.IsSuccess() {
		t.Fatal("expected failure when destination rejects the writer")
	}
	if !strings.Contains(res.Error, "open destination") {
		t.Errorf("error %q should mention the destination", res.Error)
	}
}

func TestWorkerTransferDestinationCloseFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "payload")
	}))
	defer srv.Close()

	store := newMockStore()
	store.failClose = true
	worker := newTestWorker(store)

	res := worker.Transfer(context.Background(), Request{
		SourceURL:       srv.URL + "/v.mp4",
		DestinationPath: "v.mp4",
	})

	if res.IsSuccess() {
		t.Fatal("expected failure when the destination write cannot be finalized")
	}
	if !strings.Contains(res.Error, "finalize destination") {
		t.Errorf("error %q should mention finalize", res.Error)
	}
}

func TestWorkerTransferSourceDiesMidStream(t *testing.T) {
	// Advertise more bytes than are sent so the copy fails partway through.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		io.WriteString(w, "truncated")
	}))
	defer srv.Close()

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "")
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	worker := NewWorker(httpx.NewClient(httpx.DefaultOptions()), store, nil)

	res := worker.Transfer(context.Background(), Request{
		SourceURL:       srv.URL + "/records/g1/g2/video.mp4",
		DestinationPath: "g1_g2.mp4",
	})

	if res.IsSuccess() {
		t.Fatal("expected failure for a source that dies mid-stream")
	}
	if !strings.Contains(res.Error, "copy to destination") {
		t.Errorf("error %q should mention the copy", res.Error)
	}
	if exists, _ := store.Exists(context.Background(), "g1_g2.mp4"); exists {
		t.Error("interrupted transfer must not publish a partial object")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read store dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("aborted transfer left files behind: %v", entries)
	}
}

func TestWorkerTransferOverwrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "second version")
	}))
	defer srv.Close()

	store := newMockStore()
	store.objects["v.mp4"] = []byte("first version")
	worker := newTestWorker(store)

	res := worker.Transfer(context.Background(), Request{
		SourceURL:       srv.URL + "/v.mp4",
		DestinationPath: "v.mp4",
	})

	if !res.IsSuccess() {
		t.Fatalf("expected success, got: %s", res.Error)
	}
	if got := string(store.get("v.mp4")); got != "second version" {
		t.Errorf("last write must win, stored %q", got)
	}
}
