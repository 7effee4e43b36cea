package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
)

const maxImageRedirects = 10

var errRedirectHost = errors.New("redirect to host outside the image allow-list")

// checkImageRedirect holds every redirect hop to the same host allow-list as the
// original request.
func (h *Handler) checkImageRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxImageRedirects {
		return fmt.Errorf("stopped after %d redirects", maxImageRedirects)
	}
	if !slices.Contains(h.cfg.Image.AllowedHosts, req.URL.Hostname()) {
		return fmt.Errorf("%w: %s", errRedirectHost, req.URL.Hostname())
	}
	return nil
}

// ProxyImage fetches ?url= from an allow-listed image host and streams it back
// with a long shared-cache lifetime.
func (h *Handler) ProxyImage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		http.Error(w, "Missing url", http.StatusBadRequest)
		return
	}

	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "https" && target.Scheme != "http") || target.Host == "" {
		http.Error(w, "Invalid url", http.StatusBadRequest)
		return
	}

	if !slices.Contains(h.cfg.Image.AllowedHosts, target.Hostname()) {
		http.Error(w, "Invalid host", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		http.Error(w, "Invalid url", http.StatusBadRequest)
		return
	}

	resp, err := h.images.Do(req)
	if err != nil {
		h.logger.Warn("image fetch failed", "url", target.String(), "error", err)
		http.Error(w, "Upstream error", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		http.Error(w, "Upstream error", resp.StatusCode)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", sharedCacheControl(h.cfg.Image.CacheTTL, h.cfg.Image.CacheTTL))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Debug("image copy interrupted", "error", err)
	}
}
