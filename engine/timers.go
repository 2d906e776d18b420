package engine

import (
	"fmt"

	"github.com/finitefield-org/browser-tester/scheduler"
)

// NowMs returns the scheduler's current virtual clock.
func (rt *Runtime) NowMs() int64 { return rt.sched.Now() }

// AdvanceTime moves the virtual clock forward by deltaMs, running every
// timer and animation-frame callback due along the way.
func (rt *Runtime) AdvanceTime(deltaMs int64) error {
	before := rt.trc.timerRunHits
	err := rt.sched.AdvanceTime(deltaMs)
	rt.emitAdvanceTrace("advance", before)
	return wrapTimerErr(err)
}

// AdvanceTimeTo moves the virtual clock forward to targetMs exactly,
// running every timer due by then. targetMs must not be earlier than
// the current clock.
func (rt *Runtime) AdvanceTimeTo(targetMs int64) error {
	before := rt.trc.timerRunHits
	err := rt.sched.AdvanceTimeTo(targetMs)
	rt.emitAdvanceTrace("advance", before)
	return wrapTimerErr(err)
}

// Flush runs every queued task and microtask, and every timer already
// due, without moving the clock forward on its own.
func (rt *Runtime) Flush() error {
	before := rt.trc.timerRunHits
	err := rt.sched.Flush()
	rt.emitAdvanceTrace("flush", before)
	return wrapTimerErr(err)
}

// RunDueTimers runs every timer due at the current clock, without
// advancing the clock or draining plain queued tasks.
func (rt *Runtime) RunDueTimers() error {
	before := rt.trc.timerRunHits
	err := rt.sched.RunDueTimers()
	rt.emitAdvanceTrace("flush", before)
	return wrapTimerErr(err)
}

// RunNextTimer runs the single next-scheduled timer regardless of
// whether it is due yet, reporting whether one existed to run.
func (rt *Runtime) RunNextTimer() bool { return rt.sched.RunNextTimer() }

// RunNextDueTimer runs the single next timer only if it is already due.
func (rt *Runtime) RunNextDueTimer() bool { return rt.sched.RunNextDueTimer() }

// ClearTimer cancels a pending timeout, interval, or animation frame by
// id; clearing an unknown or already-fired id is a no-op.
func (rt *Runtime) ClearTimer(id int) { rt.sched.ClearTimer(id) }

// ClearAllTimers cancels every pending timer at once.
func (rt *Runtime) ClearAllTimers() { rt.sched.ClearAllTimers() }

// PendingTimers lists every timer still scheduled, ordered by due time
// then id.
func (rt *Runtime) PendingTimers() []scheduler.PendingTimer { return rt.sched.PendingTimers() }

// SetTimerStepLimit caps how many timer firings a single advance/flush
// call may perform before returning a TimerLimitError, guarding against
// runaway self-rescheduling intervals.
func (rt *Runtime) SetTimerStepLimit(n int) { rt.sched.SetMaxStepsPerRun(n) }

func (rt *Runtime) emitAdvanceTrace(verb string, before int) {
	if !rt.trc.timersOn {
		return
	}
	ran := rt.trc.timerRunHits - before
	rt.trc.emit(fmt.Sprintf("[timer] %s now_ms=%d ran=%d", verb, rt.sched.Now(), ran))
}

func wrapTimerErr(err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*scheduler.TimerStepLimitExceededError); ok {
		return &TimerLimitError{NowMs: se.NowMs, DueLimit: se.DueLimit, PendingTasks: se.PendingTasks, NextTaskSummary: se.NextTaskSummary}
	}
	return err
}
