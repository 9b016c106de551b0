package blender

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientDocument(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("user-agent")
		switch r.URL.Path {
		case "/page":
			w.Header().Set("content-type", "text/html")
			w.Write([]byte(`<html><body><p class="hello">hello</p></body></html>`))
		case "/json":
			w.Header().Set("content-type", "application/json")
			w.Write([]byte(`{"hello": true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tel := &recordingTel{}
	client := testClient(tel)

	doc, err := client.Document(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	require.Equal(t, "hello", doc.Find("p.hello").Text())
	require.NotEmpty(t, userAgent)

	_, err = client.Document(context.Background(), srv.URL+"/json")
	require.ErrorIs(t, err, ErrNotHTML)

	_, err = client.Document(context.Background(), srv.URL+"/missing")
	require.ErrorIs(t, err, ErrUnexpectedStatus)

	require.Len(t, tel.broken, 2)
}

func TestClientCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tel := &recordingTel{}
	_, err := testClient(tel).Document(ctx, srv.URL)
	require.Error(t, err)
}
