package handlers

import "net/http"

// CORS allows the kiosk and web frontends, which are served from a
// different origin, to call the API. The surface carries no cookies or
// credentials, so the wildcard origin is safe.
func (h *Handlers) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setCORSHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Access-Control-Allow-Origin", "*")
	headers.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	headers.Set("Access-Control-Allow-Headers", "Content-Type, Stripe-Signature")
}

// MethodNotAllowed is installed on the router directly because mux skips
// middleware for its NotFoundHandler and MethodNotAllowedHandler.
func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
}

// NotFound mirrors MethodNotAllowed for unknown paths.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		http.Error(w, "Not Found", http.StatusNotFound)
	})
}
