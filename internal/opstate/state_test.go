package opstate

import "testing"

func TestStateVariants(t *testing.T) {
	if got := (State[int]{}).Status(); got != StatusIdle {
		t.Fatalf("zero state expected idle, got %s", got)
	}

	loading := Loading[int]()
	if !loading.Busy() {
		t.Fatalf("loading should be busy")
	}
	if _, ok := loading.Value(); ok {
		t.Fatalf("loading should not carry a value")
	}

	ok := Succeeded(42)
	if v, has := ok.Value(); !has || v != 42 {
		t.Fatalf("expected value 42, got %d (%v)", v, has)
	}
	if ok.Err() != "" || ok.Busy() {
		t.Fatalf("succeeded state should have no error and not be busy")
	}

	failed := Failed[int]("boom")
	if failed.Err() != "boom" {
		t.Fatalf("expected boom, got %q", failed.Err())
	}
	if _, has := failed.Value(); has {
		t.Fatalf("failed state should not carry a value")
	}
}

func TestSlotDiscardsStaleSettle(t *testing.T) {
	var slot Slot[string]

	first := slot.Begin()
	second := slot.Begin()

	if !slot.Settle(second, Succeeded("second")) {
		t.Fatalf("current ticket should settle")
	}
	if slot.Settle(first, Succeeded("first")) {
		t.Fatalf("stale ticket should not settle")
	}

	got, _ := slot.Current().Value()
	if got != "second" {
		t.Fatalf("expected second, got %q", got)
	}
}

func TestSlotResetInvalidatesInFlight(t *testing.T) {
	var slot Slot[string]

	ticket := slot.Begin()
	slot.Reset()

	if slot.Settle(ticket, Failed[string]("late")) {
		t.Fatalf("settle after reset should be rejected")
	}
	if status := slot.Current().Status(); status != StatusIdle {
		t.Fatalf("expected idle, got %s", status)
	}
}
