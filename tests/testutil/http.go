package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request describes one call against a router in an HTTP test.
type Request struct {
	Method string
	Path   string
	// Body is marshalled to JSON unless it is already a string
	Body    any
	Token   string
	Headers map[string]string
}

// Do serves r against h and returns the recorder.
func Do(t *testing.T, h http.Handler, r Request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	switch b := r.Body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		body = ToJSONReader(t, b)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, r.Path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Body parses the recorded response as a JSON object.
func Body(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), "Failed to parse JSON response: %s", w.Body.String())
	return result
}

// BodyAs parses the recorded response into T.
func BodyAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var result T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), "Failed to parse JSON response: %s", w.Body.String())
	return result
}

// AssertSuccess asserts status and a {success:true} envelope.
func AssertSuccess(t *testing.T, w *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()

	require.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	resp := Body(t, w)
	assert.Equal(t, true, resp["success"], "Expected success to be true")
	return resp
}

// AssertFailure asserts status and a {success:false, message} envelope.
func AssertFailure(t *testing.T, w *httptest.ResponseRecorder, status int, message string) map[string]any {
	t.Helper()

	require.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	resp := Body(t, w)
	assert.Equal(t, false, resp["success"], "Expected success to be false")
	if message != "" {
		assert.Equal(t, message, resp["message"])
	}
	return resp
}

// AssertError asserts status and a {success:false, error} envelope.
func AssertError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) map[string]any {
	t.Helper()

	require.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	resp := Body(t, w)
	assert.Equal(t, false, resp["success"], "Expected success to be false")
	if message != "" {
		assert.Equal(t, message, resp["error"])
	}
	return resp
}

// ToJSONReader converts a value to a JSON io.Reader.
func ToJSONReader(t *testing.T, v interface{}) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
