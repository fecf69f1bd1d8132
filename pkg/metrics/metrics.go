// Package metrics defines the module's Prometheus instrumentation:
// counters and histograms over credential issuance, presentation
// generation/verification, and revocation-registry updates. There is
// no HTTP surface in this module, so Handler exists only for a host
// binary that chooses to expose it via net/http itself.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	credentialsIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heimdall_credentials_issued_total",
			Help: "Total number of credentials issued, by outcome",
		},
		[]string{"status"},
	)

	presentationGenerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heimdall_presentation_generation_total",
			Help: "Total number of presentation generation attempts, by variant and outcome",
		},
		[]string{"variant", "status"},
	)

	presentationGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "heimdall_presentation_generation_duration_seconds",
			Help:    "Presentation generation duration in seconds, by variant",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"variant"},
	)

	presentationVerificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heimdall_presentation_verification_total",
			Help: "Total number of presentation verification attempts, by variant and outcome",
		},
		[]string{"variant", "status"},
	)

	presentationVerificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "heimdall_presentation_verification_duration_seconds",
			Help:    "Presentation verification duration in seconds, by variant",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"variant"},
	)

	revocationUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heimdall_revocation_updates_total",
			Help: "Total number of revocation registry toggles",
		},
		[]string{"status"},
	)

	revocationRegistrySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heimdall_revocation_registry_leaves",
			Help: "Configured leaf count of the revocation registry",
		},
	)
)

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordCredentialIssuance records one credential issuance attempt.
func RecordCredentialIssuance(success bool) {
	credentialsIssuedTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordPresentationGeneration records one presentation generate()
// call for variant ("attribute", "range", "polygon", "delegation").
func RecordPresentationGeneration(variant string, duration time.Duration, success bool) {
	presentationGenerationTotal.WithLabelValues(variant, statusLabel(success)).Inc()
	presentationGenerationDuration.WithLabelValues(variant).Observe(duration.Seconds())
}

// RecordPresentationVerification records one presentation verify()
// call for variant.
func RecordPresentationVerification(variant string, duration time.Duration, success bool) {
	presentationVerificationTotal.WithLabelValues(variant, statusLabel(success)).Inc()
	presentationVerificationDuration.WithLabelValues(variant).Observe(duration.Seconds())
}

// RecordRevocationUpdate records one registry bit-toggle.
func RecordRevocationUpdate(success bool) {
	revocationUpdatesTotal.WithLabelValues(statusLabel(success)).Inc()
}

// SetRevocationRegistrySize reports the registry's configured leaf
// count, a constant set once at registry construction.
func SetRevocationRegistrySize(leaves int) {
	revocationRegistrySize.Set(float64(leaves))
}

// Handler returns the Prometheus scrape handler, for a host binary
// that wants to serve /metrics itself.
func Handler() http.Handler {
	return promhttp.Handler()
}
