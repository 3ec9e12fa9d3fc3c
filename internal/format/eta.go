package format

import (
	"fmt"
	"time"
)

// etaSmoothing is the weight of the latest rate sample in the exponential
// moving average used by ETAEstimator.
const etaSmoothing = 0.3

// ETAEstimator estimates the remaining time of a run from successive
// progress fractions. It is not safe for concurrent use.
type ETAEstimator struct {
	startTime    time.Time
	lastTime     time.Time
	lastProgress float64
	progressRate float64 // fraction per second, smoothed
	now          func() time.Time
}

// NewETAEstimator creates an estimator starting now.
func NewETAEstimator() *ETAEstimator {
	return newETAEstimatorWithClock(time.Now)
}

func newETAEstimatorWithClock(now func() time.Time) *ETAEstimator {
	t := now()
	return &ETAEstimator{startTime: t, lastTime: t, now: now}
}

// Update records a new progress fraction in [0, 1] and returns the ETA.
func (e *ETAEstimator) Update(progress float64) time.Duration {
	t := e.now()
	dt := t.Sub(e.lastTime).Seconds()
	if dt > 0 && progress > e.lastProgress {
		rate := (progress - e.lastProgress) / dt
		if e.progressRate == 0 {
			e.progressRate = rate
		} else {
			e.progressRate = etaSmoothing*rate + (1-etaSmoothing)*e.progressRate
		}
		e.lastTime = t
		e.lastProgress = progress
	}
	return e.ETA()
}

// ETA returns the current estimate, or 0 when no rate is known yet or the
// run is complete.
func (e *ETAEstimator) ETA() time.Duration {
	if e.progressRate <= 0 || e.lastProgress >= 1 {
		return 0
	}
	remaining := (1 - e.lastProgress) / e.progressRate
	return time.Duration(remaining * float64(time.Second)).Round(time.Millisecond)
}

// Elapsed returns the time since the estimator was created.
func (e *ETAEstimator) Elapsed() time.Duration {
	return e.now().Sub(e.startTime)
}

// FormatETA formats an ETA for display ("calculating..." when unknown).
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Minute {
		return fmt.Sprintf("%ds", int(eta.Round(time.Second).Seconds()))
	}
	eta = eta.Round(time.Second)
	return fmt.Sprintf("%dm%02ds", int(eta.Minutes()), int(eta.Seconds())%60)
}
