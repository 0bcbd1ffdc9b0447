/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"reflect"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
)

// Provider creates counters, gauges and histograms
type Provider interface {
	NewCounter(CounterOpts) Counter
	NewGauge(GaugeOpts) Gauge
	NewHistogram(HistogramOpts) Histogram
}

// Counter is a monotonically increasing value
type Counter interface {
	With(labelValues ...string) Counter
	Add(delta float64)
}

// Gauge is a value that can go up and down
type Gauge interface {
	With(labelValues ...string) Gauge
	Add(delta float64)
	Set(value float64)
}

// Histogram records observations in buckets
type Histogram interface {
	With(labelValues ...string) Histogram
	Observe(value float64)
}

type CounterOpts struct {
	Namespace  string
	Subsystem  string
	Name       string
	Help       string
	LabelNames []string
}

type GaugeOpts struct {
	Namespace  string
	Subsystem  string
	Name       string
	Help       string
	LabelNames []string
}

type HistogramOpts struct {
	Namespace  string
	Subsystem  string
	Name       string
	Help       string
	Buckets    []float64
	LabelNames []string
}

var key = reflect.TypeOf((*Provider)(nil))

// GetProvider returns the metrics provider registered in the service provider passed in.
func GetProvider(sp driver.ServiceProvider) Provider {
	s, err := sp.GetService(key)
	if err != nil {
		panic(err)
	}
	return s.(Provider)
}
