package hub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "secret-token"

// fakeHub serves /api/states/<entity> from a fixed set of payloads.
func fakeHub(t *testing.T, states map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/states/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := states[r.URL.Path[len("/api/states/"):]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, Token: testToken})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://127.0.0.1:8123"})
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = NewClient(Config{Token: testToken})
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}

func TestAttribute(t *testing.T) {
	srv, _ := fakeHub(t, map[string]string{
		"sensor.front_door_info": `{"entity_id":"sensor.front_door_info","state":"ok","attributes":{"stream_Source":"rtsp://cam/live","friendly_name":"Front Door"}}`,
	})
	c := newTestClient(t, srv.URL+"/")

	v, err := c.Attribute(context.Background(), "sensor.front_door_info", "stream_Source")
	require.NoError(t, err)
	assert.Equal(t, "rtsp://cam/live", v)
}

func TestAttributeFailures(t *testing.T) {
	srv, _ := fakeHub(t, map[string]string{
		"camera.no_attrs": `{"entity_id":"camera.no_attrs","state":"idle"}`,
		"camera.case":     `{"attributes":{"Access_Token":"abc"}}`,
		"camera.null":     `{"attributes":{"access_token":null}}`,
		"camera.empty":    `{"attributes":{"access_token":""}}`,
		"camera.number":   `{"attributes":{"access_token":42}}`,
		"camera.broken":   `{"attributes":`,
	})
	c := newTestClient(t, srv.URL)

	tests := []struct {
		entity string
		want   error
	}{
		{"camera.no_attrs", ErrMissingAttribute},
		{"camera.case", ErrMissingAttribute},
		{"camera.null", ErrMissingAttribute},
		{"camera.empty", ErrMissingAttribute},
		{"camera.number", ErrMissingAttribute},
		{"camera.broken", ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			v, err := c.Attribute(context.Background(), tt.entity, "access_token")
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, v)
		})
	}
}

func TestAttributeNotFound(t *testing.T) {
	srv, _ := fakeHub(t, nil)
	c := newTestClient(t, srv.URL)

	_, err := c.Attribute(context.Background(), "camera.missing", "access_token")

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusNotFound, serr.Code)
	assert.False(t, serr.Busy())
}

func TestAttributeEmptyEntityNoRequest(t *testing.T) {
	srv, hits := fakeHub(t, nil)
	c := newTestClient(t, srv.URL)

	_, err := c.Attribute(context.Background(), "", "access_token")
	assert.ErrorIs(t, err, ErrEmptyEntity)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestAttributeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.Attribute(context.Background(), "camera.front_door", "access_token")
	require.Error(t, err)

	var serr *StatusError
	assert.False(t, errors.As(err, &serr))
}

func TestStatusErrorClasses(t *testing.T) {
	for _, code := range []int{429, 502, 503, 504} {
		assert.True(t, (&StatusError{Code: code}).Busy(), code)
	}
	assert.False(t, (&StatusError{Code: 500}).Busy())
	assert.True(t, (&StatusError{Code: 401}).Unauthorized())
	assert.True(t, (&StatusError{Code: 403}).Unauthorized())
}
