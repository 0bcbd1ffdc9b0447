/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package manager

import "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"

type Metrics struct {
	Contexts metrics.Gauge
	Views    metrics.Counter
}

func newMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Contexts: p.NewGauge(metrics.GaugeOpts{
			Subsystem: "view",
			Name:      "contexts",
			Help:      "The number of open contexts",
		}),
		Views: p.NewCounter(metrics.CounterOpts{
			Subsystem:  "view",
			Name:       "calls_total",
			Help:       "The number of views run, by view and outcome",
			LabelNames: []string{ViewLabel, SuccessLabel},
		}),
	}
}
