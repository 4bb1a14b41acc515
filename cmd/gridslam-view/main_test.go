package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gridslam/internal/monitoring"
	"github.com/banshee-data/gridslam/internal/slam/input"
	"github.com/banshee-data/gridslam/internal/slam/params"
	"github.com/banshee-data/gridslam/internal/slam/session"
)

func newTestViewer(t *testing.T) *viewer {
	t.Helper()
	t.Cleanup(monitoring.Mute())
	p := params.Default()
	p.NumRays = 36
	p.SearchRadius = 2
	v := &viewer{params: p, surface: session.Surface{Width: 300, Height: 225}, seed: 9}
	require.NoError(t, v.reset())
	return v
}

func TestViewer_SummaryCached(t *testing.T) {
	v := newTestViewer(t)

	for i := 0; i < summaryEvery-1; i++ {
		v.sess.Step(input.Of(input.Forward))
	}
	assert.Zero(t, v.currentSummary().Count, "summary reused before summaryEvery steps")

	v.sess.Step(input.Of(input.Forward))
	assert.Equal(t, summaryEvery, v.currentSummary().Count)
	assert.Contains(t, v.status(), "step 30")
}

func TestViewer_ResetClearsSummary(t *testing.T) {
	v := newTestViewer(t)
	for i := 0; i < summaryEvery; i++ {
		v.sess.Step(input.Of(input.Forward))
	}
	require.Equal(t, summaryEvery, v.currentSummary().Count)

	v.seed++
	require.NoError(t, v.reset())
	assert.Zero(t, v.currentSummary().Count)
	assert.True(t, strings.HasPrefix(v.status(), "truth | seed 10 | step 0"))
}
