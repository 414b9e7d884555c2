package core

import (
	"sync"

	"github.com/voxelforge/lumen/engine/containers"
)

// frameWindow is how many frames the frame-time average covers.
const frameWindow = 30

type metricsState struct {
	frameTimes *containers.Ring

	frames        int32
	accumulatedMS float64
	fps           float64
}

var onceMetrics sync.Once
var metrics *metricsState

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metrics = &metricsState{
			frameTimes: containers.NewRing(frameWindow),
		}
	})
	return nil
}

// MetricsUpdate folds one frame into the counters. elapsed is the frame
// wall time in seconds.
func MetricsUpdate(elapsed float64) {
	frameMS := elapsed * 1000.0
	metrics.frameTimes.Push(frameMS)

	metrics.accumulatedMS += frameMS
	if metrics.accumulatedMS > 1000 {
		metrics.fps = float64(metrics.frames)
		metrics.accumulatedMS -= 1000
		metrics.frames = 0
	}
	metrics.frames++
}

func MetricsFPS() float64 {
	return metrics.fps
}

// MetricsFrameTime is the windowed frame-time average in milliseconds.
func MetricsFrameTime() float64 {
	return metrics.frameTimes.Average()
}

func MetricsFrame() (float64, float64) {
	return metrics.fps, metrics.frameTimes.Average()
}
