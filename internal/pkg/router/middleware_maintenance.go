package router

import (
	"net/http"
	"strings"

	"github.com/benefactorum/authotp/internal/pkg/config"
	"github.com/samber/lo"
)

// middlewareMaintenance answers 503 for route patterns listed in
// app.maintenance.endpoints, e.g. "/api/v1/identity/registrations".
func middlewareMaintenance(cfg config.Config) Middleware {
	var blocked map[string]struct{}
	if cfg != nil {
		blocked = lo.SliceToMap(cleanList(cfg.GetArray("app.maintenance.endpoints")), func(s string) (string, struct{}) {
			return s, struct{}{}
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := blocked[matchedRoutePath(r)]; ok {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func cleanList(in []string) []string {
	return lo.Compact(lo.Map(in, func(s string, _ int) string { return strings.TrimSpace(s) }))
}
