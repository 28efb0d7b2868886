// Package testutil provides a fake USPS server, a token source mock and
// sample fixtures for the client packages' tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/usps"
)

// RecordedRequest is a request received by the fake server
type RecordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

// JSONBody decodes the recorded body into a generic map
func (r RecordedRequest) JSONBody(t *testing.T) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &body))
	return body
}

// FakeUSPS serves every family under /{family}/v3 from one httptest server
type FakeUSPS struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewFakeUSPS starts a fake server that is closed with the test
func NewFakeUSPS(t *testing.T) *FakeUSPS {
	t.Helper()
	f := &FakeUSPS{handlers: make(map[string]http.HandlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// Handle registers a handler for method and the full path,
// e.g. Handle("POST", "/labels/v3/label", h)
func (f *FakeUSPS) Handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = h
}

// Requests returns a copy of everything received so far
func (f *FakeUSPS) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// RequestsTo returns the recorded requests for one path
func (f *FakeUSPS) RequestsTo(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Endpoints points every family at the fake server
func (f *FakeUSPS) Endpoints() usps.Endpoints {
	return usps.SingleBaseURL(usps.EnvironmentTesting, f.URL)
}

func (f *FakeUSPS) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	h, ok := f.handlers[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": map[string]interface{}{"message": "no handler for " + r.Method + " " + r.URL.Path},
		})
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	h(w, r)
}

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSON returns a handler that always answers with v
func JSON(status int, v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, v)
	}
}

// Sequence answers with the handlers in order, repeating the last one
func Sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	i := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[i]
		if i < len(handlers)-1 {
			i++
		}
		mu.Unlock()
		h(w, r)
	}
}

// Part is one section of a multipart response
type Part struct {
	Name    string
	Content []byte
}

// MultipartBody encodes parts as multipart/form-data and returns the body
// with its Content-Type header value
func MultipartBody(t *testing.T, parts ...Part) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormField(p.Name)
		require.NoError(t, err)
		_, err = fw.Write(p.Content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

// Multipart returns a handler answering with a multipart body
func Multipart(t *testing.T, status int, parts ...Part) http.HandlerFunc {
	body, contentType := MultipartBody(t, parts...)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}

// ExecutorOptions returns options wired to the fake server with
// instant retries, so tests never sleep
func (f *FakeUSPS) ExecutorOptions(tokens usps.TokenSource) usps.Options {
	retry := utils.DefaultRetryPolicy()
	retry.Sleep = func(context.Context, time.Duration) error { return nil }
	return usps.Options{
		Endpoints:      f.Endpoints(),
		Tokens:         tokens,
		HTTPClient:     f.Client(),
		Retry:          retry,
		Timeout:        5 * time.Second,
		HasCredentials: true,
	}
}

// NewExecutor creates an executor for family against the fake server
func (f *FakeUSPS) NewExecutor(t *testing.T, family usps.Family, tokens usps.TokenSource) *usps.Executor {
	t.Helper()
	exec, err := usps.NewExecutor(family, f.ExecutorOptions(tokens))
	require.NoError(t, err)
	return exec
}
