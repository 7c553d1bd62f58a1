package echoserver

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/coach/pkg/replyclient"
	"github.com/go-go-golems/coach/pkg/session"
)

func TestHandleChat_BadRequests(t *testing.T) {
	r := NewRouter(New())

	for name, body := range map[string]string{
		"not json":      `hello`,
		"empty message": `{"message": "   "}`,
		"no message":    `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(body)))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()

			r.ServeHTTP(resp, req)

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Contains(t, resp.Body.String(), `"error"`)
		})
	}
}

func TestHealthz(t *testing.T) {
	resp := httptest.NewRecorder()
	NewRouter(New()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestEchoServer_WithReplyClient(t *testing.T) {
	srv := httptest.NewServer(NewRouter(New()))
	defer srv.Close()

	client, err := replyclient.New(srv.URL)
	require.NoError(t, err)

	reply, err := client.GenerateReply(context.Background(), "  I feel anxious about my exam ")
	require.NoError(t, err)
	assert.Equal(t, "You said: I feel anxious about my exam", reply)

	_, err = client.GenerateReply(context.Background(), " ")
	require.Error(t, err)
	assert.True(t, replyclient.IsStatus(err))
}

func TestEchoServer_WithController(t *testing.T) {
	srv := httptest.NewServer(NewRouter(&Handler{Prefix: "echo: "}))
	defer srv.Close()

	client, err := replyclient.New(srv.URL)
	require.NoError(t, err)
	c := session.New(client)

	for _, msg := range []string{"one", "two"} {
		ex, ok := c.Submit(context.Background(), msg)
		require.True(t, ok)
		reply, err := ex.Wait()
		require.NoError(t, err)
		assert.Equal(t, "echo: "+msg, reply.Text)
	}
	assert.Equal(t, 5, c.Transcript().Len())
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, addr, NewRouter(New()))
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
