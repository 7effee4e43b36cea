package handler

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyImage(t *testing.T) {
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/moved.jpg":
			http.Redirect(w, r, "/cover.jpg", http.StatusFound)
		case "/elsewhere.jpg":
			// same server under a host name that is not allow-listed
			_, port, _ := net.SplitHostPort(r.Host)
			http.Redirect(w, r, "http://localhost:"+port+"/cover.jpg", http.StatusFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer images.Close()

	f := newFixture(t)
	f.cfg.Image.AllowedHosts = []string{"127.0.0.1"}

	proxied := func(target string) string {
		return "/api/image?url=" + url.QueryEscape(target)
	}

	t.Run("streams allowed host", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, proxied(images.URL+"/cover.jpg"), "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
		assert.Equal(t,
			"public, max-age=86400, s-maxage=86400, stale-while-revalidate=86400",
			resp.Header.Get("Cache-Control"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(body))
	})

	t.Run("follows redirect within allowed hosts", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, proxied(images.URL+"/moved.jpg"), "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(body))
	})

	t.Run("refuses redirect to other host", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, proxied(images.URL+"/elsewhere.jpg"), "")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("passes upstream status through", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, proxied(images.URL+"/missing.jpg"), "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		cases := []struct {
			path string
			want string
		}{
			{"/api/image", "Missing url"},
			{proxied("ftp://127.0.0.1/cover.jpg"), "Invalid url"},
			{proxied("::not a url"), "Invalid url"},
			{proxied("https://evil.example.com/x.jpg"), "Invalid host"},
		}
		for _, tc := range cases {
			resp := f.do(t, http.MethodGet, tc.path, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tc.path)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tc.want, tc.path)
		}
	})
}
