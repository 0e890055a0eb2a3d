package core

import (
	"sync"
	"time"

	"github.com/loov/hrtime"
)

const AVG_COUNT uint8 = 30

type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
	TotalFrames        uint64

	frameStart time.Duration
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = NewMetricsState()
	})
	return nil
}

func NewMetricsState() *MetricsState {
	return &MetricsState{
		MStimes: [AVG_COUNT]float64{0},
	}
}

// FrameBegin marks the start of a frame with the high resolution clock.
func (m *MetricsState) FrameBegin() {
	m.frameStart = hrtime.Now()
}

// FrameEnd records the time elapsed since FrameBegin.
func (m *MetricsState) FrameEnd() time.Duration {
	d := hrtime.Since(m.frameStart)
	m.Update(d.Seconds())
	return d
}

func (m *MetricsState) Update(frameElapsedTime float64) {
	// Calculate frame ms average
	frameMS := (frameElapsedTime * 1000.0)
	m.MStimes[m.FrameAVGCounter] = frameMS
	if m.FrameAVGCounter == AVG_COUNT-1 {
		m.MSavg = 0
		for i := uint8(0); i < AVG_COUNT; i++ {
			m.MSavg += m.MStimes[i]
		}

		m.MSavg /= float64(AVG_COUNT)
	}
	m.FrameAVGCounter++
	m.FrameAVGCounter %= AVG_COUNT

	// Calculate Frames per second.
	m.AccumulatedFrameMS += frameMS
	if m.AccumulatedFrameMS > 1000 {
		m.FPS = float64(m.Frames)
		m.AccumulatedFrameMS -= 1000
		m.Frames = 0
	}

	// Count all Frames.
	m.Frames++
	m.TotalFrames++
}

func MetricsFrameBegin() {
	metricsState.FrameBegin()
}

func MetricsFrameEnd() time.Duration {
	return metricsState.FrameEnd()
}

func MetricsUpdate(frameElapsedTime float64) {
	metricsState.Update(frameElapsedTime)
}

func MetricsFPS() float64 {
	return metricsState.FPS
}

func MetricsFrameTime() float64 {
	return metricsState.MSavg
}

func MetricsFrame() (float64, float64) {
	return metricsState.FPS, metricsState.MSavg
}
