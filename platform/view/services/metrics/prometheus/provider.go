/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	"net/http"

	kitmetrics "github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/prometheus"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultNamespace = "osc"

// Provider creates prometheus metrics registered against the passed registry.
// Nodes running in the same process share the registry and are told apart by their constant labels.
type Provider struct {
	Registry    *prom.Registry
	ConstLabels prom.Labels
}

// NewRegistry returns a registry with the go and process collectors installed
func NewRegistry() *prom.Registry {
	r := prom.NewRegistry()
	r.MustRegister(prom.NewGoCollector(), prom.NewProcessCollector(prom.ProcessCollectorOpts{}))
	return r
}

// NewProvider returns a provider whose metrics carry the node label
func NewProvider(registry *prom.Registry, node string) *Provider {
	return &Provider{Registry: registry, ConstLabels: prom.Labels{"node": node}}
}

// Handler serves the metrics in the registry
func Handler(registry *prom.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

func (p *Provider) NewCounter(o metrics.CounterOpts) metrics.Counter {
	cv := prom.NewCounterVec(prom.CounterOpts{
		Namespace:   namespace(o.Namespace),
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: p.ConstLabels,
	}, o.LabelNames)
	cv = register(p.Registry, cv)
	return &Counter{Counter: prometheus.NewCounter(cv)}
}

func (p *Provider) NewGauge(o metrics.GaugeOpts) metrics.Gauge {
	gv := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace:   namespace(o.Namespace),
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: p.ConstLabels,
	}, o.LabelNames)
	gv = register(p.Registry, gv)
	return &Gauge{Gauge: prometheus.NewGauge(gv)}
}

func (p *Provider) NewHistogram(o metrics.HistogramOpts) metrics.Histogram {
	hv := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace:   namespace(o.Namespace),
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		Buckets:     o.Buckets,
		ConstLabels: p.ConstLabels,
	}, o.LabelNames)
	hv = register(p.Registry, hv)
	return &Histogram{Histogram: prometheus.NewHistogram(hv)}
}

func namespace(ns string) string {
	if len(ns) == 0 {
		return DefaultNamespace
	}
	return ns
}

// register returns the collector already registered under the same descriptor, if any
func register[C prom.Collector](r *prom.Registry, c C) C {
	if r == nil {
		return c
	}
	if err := r.Register(c); err != nil {
		var are prom.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

type Counter struct{ kitmetrics.Counter }

func (c *Counter) With(labelValues ...string) metrics.Counter {
	return &Counter{Counter: c.Counter.With(labelValues...)}
}

type Gauge struct{ kitmetrics.Gauge }

func (g *Gauge) With(labelValues ...string) metrics.Gauge {
	return &Gauge{Gauge: g.Gauge.With(labelValues...)}
}

type Histogram struct{ kitmetrics.Histogram }

func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	return &Histogram{Histogram: h.Histogram.With(labelValues...)}
}
