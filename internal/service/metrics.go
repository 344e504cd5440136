package service

import "github.com/prometheus/client_golang/prometheus"

var (
	searchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "site_search_total", Help: "Executed searches by type filter"},
		[]string{"type"},
	)
	searchResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "site_search_results",
		Help:    "Matched results per search before pagination",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
	})
	clickTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "site_search_clicks_total", Help: "Tracked search result clicks by result type"},
		[]string{"type"},
	)
	authEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "site_auth_events_total", Help: "Authentication events"},
		[]string{"event", "result"},
	)
)

func init() { prometheus.MustRegister(searchTotal, searchResults, clickTotal, authEvents) }

func typeLabel(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
