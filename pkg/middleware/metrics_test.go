package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/stratum-go/stratum/pkg/compose"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == name {
			return fam
		}
	}
	t.Fatalf("Metric family %q not registered", name)
	return nil
}

func counterValue(t *testing.T, fam *dto.MetricFamily, labels map[string]string) float64 {
	t.Helper()
	for _, m := range fam.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && lp.GetValue() != want {
				match = false
				break
			}
		}
		if match {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetricsStageDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := Metrics(WithRegistry(reg))

	hooks.OnStage(nil, compose.StageLayoutFetch, 25*time.Millisecond, nil)
	hooks.OnStage(nil, compose.StagePageFetch, 10*time.Millisecond, errors.New("boom"))

	fam := gatherFamily(t, reg, "stratum_stage_duration_seconds")

	var okSeen, errSeen bool
	for _, m := range fam.GetMetric() {
		labels := map[string]string{}
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		switch {
		case labels["stage"] == "layout_fetch" && labels["status"] == "ok":
			okSeen = true
			if m.GetHistogram().GetSampleCount() != 1 {
				t.Errorf("layout_fetch sample count = %d", m.GetHistogram().GetSampleCount())
			}
		case labels["stage"] == "page_fetch" && labels["status"] == "error":
			errSeen = true
		}
	}
	if !okSeen || !errSeen {
		t.Errorf("Expected ok and error series, got %v", fam.GetMetric())
	}
}

func TestMetricsCacheLookups(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := Metrics(WithRegistry(reg))

	hooks.OnCacheLookup(nil, "k", false)
	hooks.OnCacheLookup(nil, "k", true)
	hooks.OnCacheLookup(nil, "k", true)

	fam := gatherFamily(t, reg, "stratum_cache_lookups_total")
	if got := counterValue(t, fam, map[string]string{"result": "hit"}); got != 2 {
		t.Errorf("hit count = %v", got)
	}
	if got := counterValue(t, fam, map[string]string{"result": "miss"}); got != 1 {
		t.Errorf("miss count = %v", got)
	}
}

func TestMetricsShortCircuitsAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := Metrics(WithRegistry(reg))

	hooks.OnShortCircuit(nil, compose.StageLayoutFetch, compose.KindRedirect)
	hooks.OnShortCircuit(nil, compose.StagePageFetch, compose.KindNotFound)
	hooks.OnError(nil, errors.New("boom"))

	sc := gatherFamily(t, reg, "stratum_short_circuits_total")
	if got := counterValue(t, sc, map[string]string{"stage": "layout_fetch", "kind": "redirect"}); got != 1 {
		t.Errorf("redirect count = %v", got)
	}
	if got := counterValue(t, sc, map[string]string{"stage": "page_fetch", "kind": "not_found"}); got != 1 {
		t.Errorf("not_found count = %v", got)
	}

	errs := gatherFamily(t, reg, "stratum_pipeline_errors_total")
	if got := counterValue(t, errs, nil); got != 1 {
		t.Errorf("error count = %v", got)
	}
}

func TestMetricsOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := Metrics(
		WithRegistry(reg),
		WithNamespace("myapp"),
		WithSubsystem("compose"),
		WithConstLabels(prometheus.Labels{"service": "web"}),
		WithBuckets([]float64{0.01, 0.1}),
	)

	hooks.OnCacheLookup(nil, "k", true)

	fam := gatherFamily(t, reg, "myapp_compose_cache_lookups_total")
	m := fam.GetMetric()[0]

	var hasConst bool
	for _, lp := range m.GetLabel() {
		if lp.GetName() == "service" && lp.GetValue() == "web" {
			hasConst = true
		}
	}
	if !hasConst {
		t.Errorf("Const labels missing: %v", m.GetLabel())
	}
}

func TestMetricsAttachedToPipeline(t *testing.T) {
	reg := prometheus.NewRegistry()

	type locals struct{}
	type page struct{}

	p, err := compose.New(compose.Options[struct{}, locals, struct{}, page]{
		PageFetch: func(ctx context.Context, rc *compose.Ctx, _ locals) (compose.Result[page], error) {
			return compose.Props(page{}), nil
		},
		Hash:  func(*compose.Ctx, locals) string { return "k" },
		TTL:   time.Minute,
		Hooks: Metrics(WithRegistry(reg)),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := p.Run(context.Background(), compose.NewCtx(nil, nil, nil)); err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	}

	fam := gatherFamily(t, reg, "stratum_cache_lookups_total")
	if hits := counterValue(t, fam, map[string]string{"result": "hit"}); hits != 1 {
		t.Errorf("hit count = %v", hits)
	}
}
