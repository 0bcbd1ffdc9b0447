/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package views

import (
	"reflect"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics/disabled"
)

const (
	CommandLabel = "command"
	StageLabel   = "stage"
	OutcomeLabel = "outcome"
)

type Metrics struct {
	Transitions metrics.Counter
	Outcomes    metrics.Counter
	Duration    metrics.Histogram
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Transitions: p.NewCounter(metrics.CounterOpts{
			Subsystem:  "iou",
			Name:       "transitions_total",
			Help:       "The number of stages entered by transition attempts, by command and stage",
			LabelNames: []string{CommandLabel, StageLabel},
		}),
		Outcomes: p.NewCounter(metrics.CounterOpts{
			Subsystem:  "iou",
			Name:       "attempts_total",
			Help:       "The number of transition attempts, by command and outcome",
			LabelNames: []string{CommandLabel, OutcomeLabel},
		}),
		Duration: p.NewHistogram(metrics.HistogramOpts{
			Subsystem:  "iou",
			Name:       "attempt_duration_seconds",
			Help:       "The duration of transition attempts, by command and outcome",
			Buckets:    []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			LabelNames: []string{CommandLabel, OutcomeLabel},
		}),
	}
}

var metricsType = reflect.TypeOf((*Metrics)(nil))

// GetMetrics returns the registered metrics, metrics going nowhere if none is
func GetMetrics(sp driver.ServiceProvider) *Metrics {
	s, err := sp.GetService(metricsType)
	if err != nil {
		logger.Debugf("no iou metrics registered, disabling them")
		return NewMetrics(&disabled.Provider{})
	}
	return s.(*Metrics)
}
