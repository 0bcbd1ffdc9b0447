/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package notary

import "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"

const OutcomeLabel = "outcome"

type Metrics struct {
	Requests metrics.Counter
}

func newMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Requests: p.NewCounter(metrics.CounterOpts{
			Subsystem:  "notary",
			Name:       "requests_total",
			Help:       "The number of finalization requests, by outcome",
			LabelNames: []string{OutcomeLabel},
		}),
	}
}
