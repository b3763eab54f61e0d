package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesCollectors(t *testing.T) {
	DeauthBursts.Inc()
	ProcessSpawns.WithLabelValues("aireplay-ng").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{
		"moray_deauth_bursts_total",
		`moray_process_spawns_total{tool="aireplay-ng"}`,
	} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in exposition output", name)
		}
	}
}
