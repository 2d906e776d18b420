package scheduler

import "testing"

func TestSetTimeoutFiresAtDueTime(t *testing.T) {
	s := New(0)
	fired := false
	s.SetTimeout(func() { fired = true }, 100)

	if err := s.AdvanceTime(50); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	if fired {
		t.Fatal("timer fired before its due time")
	}
	if err := s.AdvanceTime(50); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	if !fired {
		t.Fatal("expected timer to fire once due")
	}
}

func TestSetIntervalReschedulesNonCoalescing(t *testing.T) {
	s := New(0)
	count := 0
	s.SetInterval(func() { count++ }, 10)

	if err := s.AdvanceTime(35); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 firings after 35ms at a 10ms interval, got %d", count)
	}
}

func TestClearTimerPreventsFiring(t *testing.T) {
	s := New(0)
	fired := false
	id := s.SetTimeout(func() { fired = true }, 10)
	s.ClearTimer(id)
	if err := s.AdvanceTime(20); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	if fired {
		t.Fatal("expected cleared timer not to fire")
	}
}

func TestMicrotasksDrainBeforeNextTask(t *testing.T) {
	s := New(0)
	var order []string
	s.QueueTask(func() {
		order = append(order, "task1")
		s.QueueMicrotask(func() { order = append(order, "micro1") })
	})
	s.QueueTask(func() { order = append(order, "task2") })

	s.RunNextTask()
	s.RunNextTask()

	want := []string{"task1", "micro1", "task2"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestTimerStepLimitExceeded(t *testing.T) {
	s := New(5)
	var reschedule func()
	reschedule = func() {}
	id := s.SetInterval(func() { reschedule() }, 1)
	reschedule = func() { _ = id }

	err := s.AdvanceTime(1000)
	if err == nil {
		t.Fatal("expected a step-limit error for a runaway interval")
	}
	if _, ok := err.(*TimerStepLimitExceededError); !ok {
		t.Fatalf("expected *TimerStepLimitExceededError, got %T", err)
	}
}

func TestRunNextTimerAdvancesClockToDueTime(t *testing.T) {
	s := New(0)
	s.SetTimeout(func() {}, 250)
	if !s.RunNextTimer() {
		t.Fatal("expected a pending timer to fire")
	}
	if s.Now() != 250 {
		t.Fatalf("expected clock to advance to 250, got %d", s.Now())
	}
}
