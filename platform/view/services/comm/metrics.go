/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"

type Metrics struct {
	Sessions metrics.Gauge
}

func newMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Sessions: p.NewGauge(metrics.GaugeOpts{
			Subsystem: "comm",
			Name:      "sessions",
			Help:      "The number of open sessions",
		}),
	}
}
