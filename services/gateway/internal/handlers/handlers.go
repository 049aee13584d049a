package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/restaurant-management/pkg/logger"
	"github.com/diagnosis/restaurant-management/pkg/response"
	"github.com/diagnosis/restaurant-management/services/gateway/internal/proxy"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	identity     *proxy.ServiceProxy
	organization *proxy.ServiceProxy
	menu         *proxy.ServiceProxy
}

func New(identity, organization, menu *proxy.ServiceProxy) *Handlers {
	return &Handlers{
		identity:     identity,
		organization: organization,
		menu:         menu,
	}
}

// Routes forwards by path prefix.
func (h *Handlers) Routes(r chi.Router) {
	r.Handle("/auth/*", h.Forward(h.identity))
	r.Handle("/api/users/*", h.Forward(h.organization))
	r.Handle("/api/locations/*", h.Forward(h.organization))
	r.Handle("/api/menus/*", h.Forward(h.menu))
}

// Forward relays the request to target unchanged apart from hop-by-hop headers.
func (h *Handlers) Forward(target *proxy.ServiceProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			response.BadRequest(w, "Failed to read request body")
			return
		}
		defer r.Body.Close()

		header := r.Header.Clone()
		proxy.AppendForwardedFor(header, r.RemoteAddr)

		resp, err := target.ProxyRequest(r.Context(), r.Method, r.URL.RequestURI(), body, header)
		if err != nil {
			logger.ErrorContext(r.Context(), "Service proxy error", "error", err, "service", target.Name(), "path", r.URL.Path)
			response.ServiceUnavailable(w, "Service unavailable")
			return
		}
		defer resp.Body.Close()

		proxy.StripHopHeaders(resp.Header)
		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.WriteHeader(resp.StatusCode)

		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.ErrorContext(r.Context(), "Failed to copy response body", "error", err)
		}
	}
}
