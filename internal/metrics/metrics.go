// Package metrics holds the Prometheus collectors updated by the attack
// sessions. They live on a private registry exposed through Handler.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "moray"

var (
	Registry = prometheus.NewRegistry()

	ProcessSpawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_spawns_total",
			Help:      "External tool processes started, by tool",
		},
		[]string{"tool"},
	)

	CandidatesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_generated_total",
			Help:      "Candidate strings produced, by generation phase",
		},
		[]string{"phase"},
	)

	DeauthBursts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deauth_bursts_total",
		Help:      "Deauthentication bursts launched",
	})

	CapturePolls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capture_polls_total",
		Help:      "Handshake completeness polls",
	})

	StateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attack_state_transitions_total",
			Help:      "Attack state machine transitions, by state entered",
		},
		[]string{"state"},
	)

	AttackDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "attack_duration_seconds",
		Help:      "Wall time of complete attack runs",
		Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800},
	})
)

func init() {
	Registry.MustRegister(
		ProcessSpawns,
		CandidatesGenerated,
		DeauthBursts,
		CapturePolls,
		StateTransitions,
		AttackDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
