package stubhttp_test

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sophialabs/stubhttp"
)

var client = &http.Client{Timeout: 5 * time.Second}

func startServer(t *testing.T, mutate ...func(*stubhttp.Config)) *stubhttp.Server {
	t.Helper()
	cfg := stubhttp.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	srv, err := stubhttp.New(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Start(0))
	t.Cleanup(srv.Close)
	return srv
}

type result struct {
	status  int
	headers http.Header
	body    string
}

func do(t *testing.T, method, url, body string, headers ...string) result {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return result{status: resp.StatusCode, headers: resp.Header, body: string(data)}
}

func get(t *testing.T, srv *stubhttp.Server, path string) result {
	t.Helper()
	return do(t, http.MethodGet, srv.BaseURL()+path, "")
}
