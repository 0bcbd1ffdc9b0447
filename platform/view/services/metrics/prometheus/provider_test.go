/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	"strings"
	"testing"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderSharesRegistry(t *testing.T) {
	registry := NewRegistry()
	alice := NewProvider(registry, "alice")
	bob := NewProvider(registry, "bob")

	opts := metrics.CounterOpts{Subsystem: "iou", Name: "transitions_total", Help: "transitions", LabelNames: []string{"command", "outcome"}}
	alice.NewCounter(opts).With("command", "issue", "outcome", "committed").Add(1)
	bob.NewCounter(opts).With("command", "issue", "outcome", "committed").Add(2)
	// creating the same metric twice on the same node reuses the collector
	alice.NewCounter(opts).With("command", "issue", "outcome", "committed").Add(1)

	expected := `
# HELP osc_iou_transitions_total transitions
# TYPE osc_iou_transitions_total counter
osc_iou_transitions_total{command="issue",node="alice",outcome="committed"} 2
osc_iou_transitions_total{command="issue",node="bob",outcome="committed"} 2
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "osc_iou_transitions_total"))
}

func TestGaugeAndHistogram(t *testing.T) {
	registry := NewRegistry()
	p := NewProvider(registry, "alice")
	g := p.NewGauge(metrics.GaugeOpts{Subsystem: "comm", Name: "sessions", Help: "sessions"})
	g.Set(3)
	g.Add(-1)
	h := p.NewHistogram(metrics.HistogramOpts{Subsystem: "iou", Name: "duration_seconds", Help: "duration", Buckets: []float64{1, 5}})
	h.Observe(0.5)

	count, err := testutil.GatherAndCount(registry, "osc_comm_sessions", "osc_iou_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
