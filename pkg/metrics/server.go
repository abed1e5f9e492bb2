package metrics

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
)

var indexPage = template.Must(template.New("index").Parse(`<html><body>
<h1>ICS Search {{.Service}} metrics</h1>
<p><a href="/metrics">/metrics</a></p>
<ul>{{range .Families}}<li>{{.}}</li>{{end}}</ul>
</body></html>`))

// Start serves m on cfg.Port in the background and returns a function that
// shuts the server down. When metrics are disabled nothing is started and
// the returned function is a no-op.
func Start(m *Metrics, cfg config.MetricsConfig, service string) (shutdown func(context.Context) error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }
	}
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      newMux(m, service),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger := slog.Default().With("component", "metrics-server", "service", service)
	go func() {
		logger.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	return server.Shutdown
}

func newMux(m *Metrics, service string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		families, err := m.Registry.Gather()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		indexPage.Execute(w, struct {
			Service  string
			Families []string
		}{service, names})
	})
	return mux
}
