// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics = defaultNoopMetrics()

	assert.False(t, Enabled())
	assert.Nil(t, HTTPHandler())

	for _, m := range []any{
		Counter("calls"),
		CounterVec("calls", []string{"op"}),
		Gauge("depth"),
		GaugeVec("depth", []string{"pool"}),
		HistogramVec("duration", []string{"op"}, BucketCallMicros),
	} {
		require.IsType(t, &noopMeters{}, m)
	}

	// labels that do not match are harmless
	CounterVec("calls", []string{"op"}).AddWithLabel(1, map[string]string{"nonsense": "x"})
	GaugeVec("depth", nil).SetWithLabel(3, nil)
}
