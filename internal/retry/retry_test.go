package retry

import (
	"testing"
	"time"

	"github.com/nyxglass/ao3dl/internal/action"
)

func noopRequeue(action.Action) {}

func TestScheduleDelayDoublesPerArmedTimer(t *testing.T) {
	table := NewTable(noopRequeue)
	a := action.Action{Kind: action.LoadWork, WorkID: 1}

	want := []time.Duration{InitialDelay, InitialDelay * 2, InitialDelay * 4}
	for i, w := range want {
		got := table.Schedule(a)
		if got != w {
			t.Errorf("Schedule() call #%d = %v, want %v", i, got, w)
		}
	}
	if got := table.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1 (one key, three armed timers)", got)
	}

	table.Shutdown()
}

func TestScheduleIsPerKey(t *testing.T) {
	table := NewTable(noopRequeue)
	a1 := action.Action{Kind: action.LoadWork, WorkID: 1}
	a2 := action.Action{Kind: action.LoadWork, WorkID: 2}

	if got := table.Schedule(a1); got != InitialDelay {
		t.Errorf("first schedule for key 1 = %v, want %v", got, InitialDelay)
	}
	if got := table.Schedule(a2); got != InitialDelay {
		t.Errorf("first schedule for an unrelated key 2 = %v, want %v (independent backoff)", got, InitialDelay)
	}
	if got := table.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2 distinct keys", got)
	}

	table.Shutdown()
}

func TestCancelStopsArmedTimerWithoutFiring(t *testing.T) {
	fired := make(chan action.Action, 1)
	table := NewTable(func(a action.Action) { fired <- a })

	a := action.Action{Kind: action.LoadWork, WorkID: 9}
	table.Schedule(a)
	table.Cancel(a.Key())

	select {
	case <-fired:
		t.Fatal("requeue was called after Cancel; timer should have been stopped first")
	case <-time.After(50 * time.Millisecond):
	}
	if got := table.Len(); got != 0 {
		t.Errorf("Len() = %d after Cancel, want 0", got)
	}
}

func TestCancelIdentifierMatchesAcrossKinds(t *testing.T) {
	table := NewTable(noopRequeue)
	load := action.Action{Kind: action.LoadWork, WorkID: 5}
	download := action.Action{Kind: action.DownloadWork, WorkID: 5}
	other := action.Action{Kind: action.LoadWork, WorkID: 6}

	table.Schedule(load)
	table.Schedule(download)
	table.Schedule(other)

	table.CancelIdentifier(load.Key().Identifier)

	if got := table.Len(); got != 1 {
		t.Errorf("Len() after CancelIdentifier = %d, want 1 (only the unrelated id's timer remains)", got)
	}

	table.Shutdown()
}

func TestScheduleRestartsAtZeroAfterCancel(t *testing.T) {
	table := NewTable(noopRequeue)
	a := action.Action{Kind: action.LoadWork, WorkID: 3}

	table.Schedule(a)
	table.Schedule(a)
	table.Cancel(a.Key())

	if got := table.Schedule(a); got != InitialDelay {
		t.Errorf("Schedule() after a full Cancel = %v, want %v (backoff should restart)", got, InitialDelay)
	}

	table.Shutdown()
}

func TestShutdownClearsEveryKey(t *testing.T) {
	table := NewTable(noopRequeue)
	table.Schedule(action.Action{Kind: action.LoadWork, WorkID: 1})
	table.Schedule(action.Action{Kind: action.LoadSeries, SeriesID: 2})

	table.Shutdown()

	if got := table.Len(); got != 0 {
		t.Errorf("Len() after Shutdown = %d, want 0", got)
	}
}
