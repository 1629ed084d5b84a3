package http

import (
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

// NewRouter creates and configures a new instance of the router.
func NewRouter(h Handler) *httprouter.Router {
	r := httprouter.New()

	r.POST("/hooks/:target", h.Hook)
	r.GET("/targets", h.Targets)
	r.GET("/runs", h.Runs)
	r.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	r.GlobalOPTIONS = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetDefaultHeaders(w)
		h := w.Header()
		h.Set("Access-Control-Allow-Methods", h.Get("Allow"))
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
