package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	pageDuration *prom.HistogramVec
	pages        *prom.CounterVec
	links        *prom.CounterVec
	clones       prom.Counter
	itemFetches  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the dynlinks metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		pageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "dynlinks",
			Name:      "page_rewrite_duration_seconds",
			Help:      "Duration of parsing, rewriting and rendering one page",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"}),
		pages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dynlinks",
			Name:      "pages_rewritten_total",
			Help:      "Pages processed by mode and result",
		}, []string{"mode", "result"}),
		links: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dynlinks",
			Name:      "links_total",
			Help:      "Visited menu links by rewrite outcome",
		}, []string{"outcome"}),
		clones: prom.NewCounter(prom.CounterOpts{
			Namespace: "dynlinks",
			Name:      "menu_items_cloned_total",
			Help:      "Menu list items appended while expanding item lists",
		}),
		itemFetches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dynlinks",
			Name:      "item_fetches_total",
			Help:      "Item catalog loads by source and result",
		}, []string{"source", "result"}),
	}
	reg.MustRegister(pr.pageDuration, pr.pages, pr.links, pr.clones, pr.itemFetches)
	return pr
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObservePageRewrite(mode Mode, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.pageDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
	p.pages.WithLabelValues(string(mode), resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) AddLinkOutcome(outcome string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.links.WithLabelValues(outcome).Add(float64(n))
}

func (p *PrometheusRecorder) AddClones(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.clones.Add(float64(n))
}

func (p *PrometheusRecorder) IncItemFetch(source string, success bool) {
	if p == nil {
		return
	}
	p.itemFetches.WithLabelValues(source, resultLabel(success)).Inc()
}
