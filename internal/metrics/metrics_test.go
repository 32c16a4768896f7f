package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muurk/stouch/internal/protocol"
	"github.com/muurk/stouch/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestObserverCounters(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))

	m.PacketReceived(protocol.PacketTypeCommand)
	m.PacketReceived(protocol.PacketTypeCommand)
	m.PacketReceived(protocol.PacketTypeExtended)
	m.PacketDropped()
	m.ReplySent("ok")
	m.CommandProcessed(protocol.CmdSwitchOn)
	m.CommandIgnored(protocol.CmdSwitchOn)
	m.CommandIgnored(protocol.CmdSwitchOn)
	m.ConnectFinished(session.WrongPassword)

	tests := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"standard packets", m.packetsReceived.WithLabelValues("standard"), 2},
		{"extended packets", m.packetsReceived.WithLabelValues("extended"), 1},
		{"dropped", m.packetsDropped, 1},
		{"ok replies", m.replies.WithLabelValues("ok"), 1},
		{"processed", m.commandsHandled.WithLabelValues("DISPLAY_SWITCHON"), 1},
		{"ignored", m.commandsIgnored.WithLabelValues("DISPLAY_SWITCHON"), 2},
		{"connects", m.connects.WithLabelValues("WRONG_UDP_PASSWORD"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metricCounterValue(t, tt.c); got != tt.want {
				t.Errorf("counter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPacketTypeLabel(t *testing.T) {
	if got := packetTypeLabel(7); got != "7" {
		t.Errorf("packetTypeLabel(7) = %q", got)
	}
}

func TestObserveHTTP(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))
	m.ObserveHTTP("/api/touch/status", http.StatusOK, 5*time.Millisecond)
	m.ObserveHTTP("/api/touch/status", http.StatusOK, 7*time.Millisecond)
	m.ObserveHTTP("/api/touch/touch", http.StatusBadRequest, time.Millisecond)

	if got := metricCounterValue(t, m.httpRequests.WithLabelValues("/api/touch/status", "200")); got != 2 {
		t.Errorf("status requests = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.httpRequests.WithLabelValues("/api/touch/touch", "400")); got != 1 {
		t.Errorf("touch requests = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.httpDuration.WithLabelValues("/api/touch/status")); got != 2 {
		t.Errorf("duration samples = %d, want 2", got)
	}
}

func TestStreamGaugeAndAutomation(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()
	if got := metricGaugeValue(t, m.streamClients); got != 1 {
		t.Errorf("stream clients = %v, want 1", got)
	}

	m.AutomationFinished("ok")
	if got := metricCounterValue(t, m.automationResult.WithLabelValues("ok")); got != 1 {
		t.Errorf("automation runs = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New(WithNamespace("panel"))
	m.PacketDropped()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"panel_packets_dropped_total 1", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNew_SeparateRegistries(t *testing.T) {
	// two instances must not collide on registration
	a := New()
	b := New()
	if a.Registry() == b.Registry() {
		t.Error("New() shared a registry")
	}
}
