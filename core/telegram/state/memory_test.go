package state

import "testing"

func TestMemoryManagerStateTransitions(t *testing.T) {
	m := NewMemoryManager()
	const userID int64 = 42

	if m.HasState(userID) {
		t.Fatal("fresh manager should have no state")
	}
	if got := m.GetState(userID); got != StateIdle {
		t.Fatalf("GetState = %q, expected idle", got)
	}

	m.SetState(userID, State("awaiting_input"))
	if !m.InProgress(userID) {
		t.Fatal("expected conversation in progress")
	}
	if got := m.GetState(userID); got != State("awaiting_input") {
		t.Fatalf("GetState = %q", got)
	}

	m.ClearState(userID)
	if m.InProgress(userID) {
		t.Fatal("expected idle after ClearState")
	}
}

func TestMemoryManagerTempData(t *testing.T) {
	m := NewMemoryManager()
	const userID int64 = 42

	if _, ok := m.GetTemp(userID, "key"); ok {
		t.Fatal("unexpected temp value")
	}

	m.SetTemp(userID, "key", "value")
	val, ok := m.GetTemp(userID, "key")
	if !ok || val != "value" {
		t.Fatalf("GetTemp = %v, %v", val, ok)
	}

	m.SetTemp(userID, "num", int64(7))
	n, ok := m.GetTempInt64(userID, "num")
	if !ok || n != 7 {
		t.Fatalf("GetTempInt64 = %d, %v", n, ok)
	}
	if _, ok := m.GetTempInt64(userID, "key"); ok {
		t.Fatal("string value should not assert as int64")
	}

	m.ClearTemp(userID, "key")
	if _, ok := m.GetTemp(userID, "key"); ok {
		t.Fatal("temp value should be cleared")
	}
}

func TestMemoryManagerClearDropsSession(t *testing.T) {
	m := NewMemoryManager()
	const userID int64 = 42

	m.SetState(userID, State("awaiting_input"))
	m.SetTemp(userID, "key", "value")

	m.Clear(userID)

	if m.InProgress(userID) {
		t.Fatal("expected no state after Clear")
	}
	if _, ok := m.GetTemp(userID, "key"); ok {
		t.Fatal("expected no temp data after Clear")
	}
}

func TestMemoryManagerIsolatesUsers(t *testing.T) {
	m := NewMemoryManager()

	m.SetState(1, State("awaiting_input"))
	if m.InProgress(2) {
		t.Fatal("state leaked between users")
	}
}
