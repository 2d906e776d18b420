// Package scheduler implements a deterministic, fake-clock event loop:
// a FIFO task queue, a FIFO microtask queue drained after every task and
// every timer callback, and a timer heap ordered by (due time, insertion
// order). Nothing here touches a wall clock — time only moves when a
// caller asks it to.
package scheduler

import (
	"container/heap"
	"fmt"
	"sort"
)

// Callback is a scheduled unit of work. The jsscript/engine layers
// close over whatever script-level callable or action they need to run.
type Callback func()

// TimerStepLimitExceededError reports a run that fired more timer
// callbacks than the configured step budget, almost always the sign of
// a setInterval(..., 0) (or similarly small delay) loop that never
// clears itself. DueLimit is nil for a Flush/RunDueTimers call (no
// target time) and set to the target passed to AdvanceTime/AdvanceTimeTo.
type TimerStepLimitExceededError struct {
	Limit           int
	NowMs           int64
	DueLimit        *int64
	PendingTasks    int
	NextTaskSummary string
}

func (e *TimerStepLimitExceededError) Error() string {
	return fmt.Sprintf("TimerStepLimitExceeded: more than %d timer callbacks fired in one run (now_ms=%d, pending_tasks=%d, next_task=%s)",
		e.Limit, e.NowMs, e.PendingTasks, e.NextTaskSummary)
}

type timerEntry struct {
	id       int
	dueAt    int64
	order    int64
	interval int64  // 0 for a one-shot setTimeout, >0 for setInterval
	kind     string // "timeout", "interval", or "raf" — for trace logging only
	cb       Callback
	cleared  bool
}

// TraceHooks lets a host (the engine) observe timer scheduling and
// firing for its exact trace-log text, without the scheduler itself
// knowing anything about log formatting. Either field may be nil.
type TraceHooks struct {
	OnSchedule func(kind string, id int, dueAt, delayMs int64)
	OnRun      func(id int, dueAt int64, intervalMs int64, nowMs int64) // intervalMs == -1 for a one-shot
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].dueAt != h[j].dueAt {
		return h[i].dueAt < h[j].dueAt
	}
	return h[i].order < h[j].order
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is a single-threaded, deterministic event loop. It is not
// safe for concurrent use; the runtime that owns it must serialize all
// access (the same way a real JS engine's single thread does).
type Scheduler struct {
	nowMs int64

	tasks      []Callback
	microtasks []Callback

	timers      timerHeap
	byID        map[int]*timerEntry
	nextTimerID int
	order       int64

	maxStepsPerRun int

	hooks TraceHooks
}

// SetTraceHooks installs the host's trace-log callbacks. Pass the zero
// value to detach them.
func (s *Scheduler) SetTraceHooks(h TraceHooks) { s.hooks = h }

// New creates a scheduler starting at time 0. maxStepsPerRun bounds how
// many timer callbacks a single AdvanceTime/AdvanceTimeTo/Flush call
// will fire before giving up with *TimerStepLimitExceededError; pass 0
// for no limit.
func New(maxStepsPerRun int) *Scheduler {
	return &Scheduler{
		byID:           make(map[int]*timerEntry),
		nextTimerID:    1,
		maxStepsPerRun: maxStepsPerRun,
	}
}

// Now returns the scheduler's current virtual time in milliseconds.
func (s *Scheduler) Now() int64 { return s.nowMs }

// QueueTask appends a macrotask to the FIFO task queue.
func (s *Scheduler) QueueTask(cb Callback) { s.tasks = append(s.tasks, cb) }

// QueueMicrotask appends a microtask to the FIFO microtask queue.
func (s *Scheduler) QueueMicrotask(cb Callback) { s.microtasks = append(s.microtasks, cb) }

// SetTimeout schedules cb to run once, delayMs from now (clamped to 0).
// Returns a timer id usable with ClearTimer.
func (s *Scheduler) SetTimeout(cb Callback, delayMs int64) int {
	return s.scheduleTimer(cb, delayMs, 0, "timeout")
}

// SetInterval schedules cb to run repeatedly, every intervalMs
// (clamped to a minimum of 1ms so it cannot busy-loop at a single
// instant). Returns a timer id usable with ClearTimer.
func (s *Scheduler) SetInterval(cb Callback, intervalMs int64) int {
	if intervalMs < 1 {
		intervalMs = 1
	}
	return s.scheduleTimer(cb, intervalMs, intervalMs, "interval")
}

// RequestAnimationFrame schedules cb to run once, delayMs from now,
// tagged as a "raf" timer for trace-log purposes; otherwise identical
// to SetTimeout.
func (s *Scheduler) RequestAnimationFrame(cb Callback, delayMs int64) int {
	return s.scheduleTimer(cb, delayMs, 0, "raf")
}

func (s *Scheduler) scheduleTimer(cb Callback, delayMs, interval int64, kind string) int {
	if delayMs < 0 {
		delayMs = 0
	}
	id := s.nextTimerID
	s.nextTimerID++
	e := &timerEntry{id: id, dueAt: s.nowMs + delayMs, order: s.order, interval: interval, kind: kind, cb: cb}
	s.order++
	heap.Push(&s.timers, e)
	s.byID[id] = e
	if s.hooks.OnSchedule != nil {
		s.hooks.OnSchedule(kind, id, e.dueAt, delayMs)
	}
	return id
}

// ClearTimer cancels a pending timer. Clearing an already-fired
// one-shot timer or an unknown id is a no-op.
func (s *Scheduler) ClearTimer(id int) {
	if e, ok := s.byID[id]; ok {
		e.cleared = true
		delete(s.byID, id)
	}
}

// ClearAllTimers cancels every pending timer, leaving the task and
// microtask queues untouched.
func (s *Scheduler) ClearAllTimers() {
	for _, e := range s.timers {
		e.cleared = true
	}
	s.byID = make(map[int]*timerEntry)
}

// SetMaxStepsPerRun changes the step budget a later Flush/RunDueTimers/
// AdvanceTime(To) call enforces. 0 means no limit.
func (s *Scheduler) SetMaxStepsPerRun(n int) { s.maxStepsPerRun = n }

// PendingTimer is a snapshot of one still-pending timer, for diagnostics.
type PendingTimer struct {
	ID         int
	DueAt      int64
	Kind       string
	IntervalMs int64 // 0 for a one-shot
}

// PendingTimers lists every uncleared timer in firing order.
func (s *Scheduler) PendingTimers() []PendingTimer {
	out := make([]PendingTimer, 0, len(s.timers))
	for _, e := range s.timers {
		if e.cleared {
			continue
		}
		out = append(out, PendingTimer{ID: e.id, DueAt: e.dueAt, Kind: e.kind, IntervalMs: e.interval})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueAt != out[j].DueAt {
			return out[i].DueAt < out[j].DueAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// drainMicrotasks runs every currently queued microtask, including ones
// enqueued by microtasks that ran earlier in the same drain.
func (s *Scheduler) drainMicrotasks() {
	for len(s.microtasks) > 0 {
		cb := s.microtasks[0]
		s.microtasks = s.microtasks[1:]
		cb()
	}
}

// RunNextTask runs the single oldest queued macrotask (if any), then
// drains microtasks. Returns false if the task queue was empty.
func (s *Scheduler) RunNextTask() bool {
	if len(s.tasks) == 0 {
		return false
	}
	cb := s.tasks[0]
	s.tasks = s.tasks[1:]
	cb()
	s.drainMicrotasks()
	return true
}

func (s *Scheduler) fireTimer(e *timerEntry) {
	delete(s.byID, e.id)
	if s.hooks.OnRun != nil {
		intervalMs := int64(-1)
		if e.interval > 0 {
			intervalMs = e.interval
		}
		s.hooks.OnRun(e.id, e.dueAt, intervalMs, s.nowMs)
	}
	e.cb()
	if e.interval > 0 && !e.cleared {
		// Non-coalescing reschedule: the next firing is anchored to
		// this timer's own due time, not to "now", so a caller that
		// falls behind doesn't get a burst of back-to-back firings to
		// catch up — it just runs once per elapsed interval.
		e.dueAt += e.interval
		e.order = s.order
		s.order++
		heap.Push(&s.timers, e)
		s.byID[e.id] = e
	}
	s.drainMicrotasks()
}

// RunNextDueTimer fires the earliest-due timer if its due time has
// already arrived (dueAt <= Now()). Returns false if no timer is due.
func (s *Scheduler) RunNextDueTimer() bool {
	for s.timers.Len() > 0 {
		e := s.timers[0]
		if e.cleared {
			heap.Pop(&s.timers)
			continue
		}
		if e.dueAt > s.nowMs {
			return false
		}
		heap.Pop(&s.timers)
		s.fireTimer(e)
		return true
	}
	return false
}

// RunNextTimer advances the clock to the earliest pending timer's due
// time (never backward) and fires it. Returns false if no timer is
// pending.
func (s *Scheduler) RunNextTimer() bool {
	for s.timers.Len() > 0 {
		e := s.timers[0]
		if e.cleared {
			heap.Pop(&s.timers)
			continue
		}
		heap.Pop(&s.timers)
		if e.dueAt > s.nowMs {
			s.nowMs = e.dueAt
		}
		s.fireTimer(e)
		return true
	}
	return false
}

// stepLimitErr builds a TimerStepLimitExceededError carrying the
// diagnostic snapshot §5 requires: current time, the target time (if
// any) the caller was advancing toward, how many tasks are still
// queued, and a one-line description of whatever would run next.
func (s *Scheduler) stepLimitErr(dueLimit *int64) *TimerStepLimitExceededError {
	summary := "none"
	if len(s.tasks) > 0 {
		summary = "task"
	} else if s.timers.Len() > 0 {
		summary = fmt.Sprintf("timer id=%d due_at=%d", s.timers[0].id, s.timers[0].dueAt)
	}
	return &TimerStepLimitExceededError{
		Limit:           s.maxStepsPerRun,
		NowMs:           s.nowMs,
		DueLimit:        dueLimit,
		PendingTasks:    len(s.tasks),
		NextTaskSummary: summary,
	}
}

// RunDueTimers fires every timer currently due, in (dueAt, order)
// order, without advancing the clock. A recurring timer rescheduled to
// a still-due time fires again within the same call.
func (s *Scheduler) RunDueTimers() error {
	steps := 0
	for {
		fired := s.RunNextDueTimer()
		if !fired {
			return nil
		}
		steps++
		if s.maxStepsPerRun > 0 && steps > s.maxStepsPerRun {
			return s.stepLimitErr(nil)
		}
	}
}

// Flush runs every task, microtask, and already-due timer until all
// three queues are empty, without advancing the clock. A recurring
// timer that reschedules itself to a still-due instant keeps the loop
// going; maxStepsPerRun bounds that.
func (s *Scheduler) Flush() error {
	steps := 0
	for {
		s.drainMicrotasks()
		if s.RunNextTask() {
			steps++
		} else if s.RunNextDueTimer() {
			steps++
		} else {
			return nil
		}
		if s.maxStepsPerRun > 0 && steps > s.maxStepsPerRun {
			return s.stepLimitErr(nil)
		}
	}
}

// AdvanceTimeTo moves the virtual clock forward to targetMs, firing
// every task, microtask, and timer due at or before that instant in
// causal order. It is a no-op (returns nil) if targetMs is not after
// the current time.
func (s *Scheduler) AdvanceTimeTo(targetMs int64) error {
	if targetMs <= s.nowMs {
		return nil
	}
	steps := 0
	for {
		s.drainMicrotasks()
		if s.RunNextTask() {
			steps++
			if s.maxStepsPerRun > 0 && steps > s.maxStepsPerRun {
				return s.stepLimitErr(&targetMs)
			}
			continue
		}
		if s.timers.Len() == 0 || s.timers[0].cleared {
			if s.timers.Len() > 0 && s.timers[0].cleared {
				heap.Pop(&s.timers)
				continue
			}
			break
		}
		next := s.timers[0]
		if next.dueAt > targetMs {
			break
		}
		s.nowMs = next.dueAt
		heap.Pop(&s.timers)
		s.fireTimer(next)
		steps++
		if s.maxStepsPerRun > 0 && steps > s.maxStepsPerRun {
			return s.stepLimitErr(&targetMs)
		}
	}
	s.nowMs = targetMs
	return nil
}

// AdvanceTime moves the virtual clock forward by deltaMs.
func (s *Scheduler) AdvanceTime(deltaMs int64) error {
	if deltaMs < 0 {
		deltaMs = 0
	}
	return s.AdvanceTimeTo(s.nowMs + deltaMs)
}

// PendingTaskCount, PendingMicrotaskCount, and PendingTimerCount report
// queue depths, for diagnostics and tests.
func (s *Scheduler) PendingTaskCount() int      { return len(s.tasks) }
func (s *Scheduler) PendingMicrotaskCount() int { return len(s.microtasks) }
func (s *Scheduler) PendingTimerCount() int {
	n := 0
	for _, e := range s.timers {
		if !e.cleared {
			n++
		}
	}
	return n
}
