package quantizer

import "math"

// Update is the progress payload sent to a Reporter.
type Update struct {
	Attempt        uint32  // zero-based attempt index
	Step           uint32  // one-based step index within the attempt
	PointsMoved    uint64  // reassignments in this step
	Distance       float64 // centroid movement in this step, in percent
	StepsDone      uint32  // steps completed across all attempts
	StepsEstimated uint32  // projected steps for the whole run
	Final          bool    // the attempt terminated with this step
}

// Reporter receives progress updates from a run.
//
// Due is polled after every step; Report is called when Due returns true
// and unconditionally when an attempt terminates. Both are called from the
// goroutine driving the run and must return quickly.
type Reporter interface {
	Due() bool
	Report(Update)
}

// NopReporter discards all updates.
type NopReporter struct{}

func (NopReporter) Due() bool     { return false }
func (NopReporter) Report(Update) {}

// estimator projects the total number of steps from the pace of completed
// attempts.
type estimator struct {
	attempts, maxSteps int

	done           uint32 // steps run so far, including the current attempt
	completed      int    // attempts finished
	completedSteps uint32 // steps run by finished attempts
}

func (e *estimator) step() {
	e.done++
}

func (e *estimator) finishAttempt() {
	e.completed++
	e.completedSteps = e.done
}

// estimate returns the projected total. Before any attempt has finished
// there is no pace data and the worst case is assumed.
func (e *estimator) estimate() uint32 {
	if e.completed == 0 {
		return uint32(e.attempts * e.maxSteps)
	}
	avg := float64(e.completedSteps) / float64(e.completed)
	est := uint32(math.Round(float64(e.completedSteps) + avg*float64(e.attempts-e.completed)))
	if est < e.done {
		est = e.done
	}
	return est
}
