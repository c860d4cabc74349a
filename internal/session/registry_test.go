package session

import (
	"errors"
	"testing"
)

func TestIsCoordinator(t *testing.T) {
	cases := []struct {
		name  string
		state State
		want  bool
	}{
		{"both unset", State{}, false},
		{"client only", State{ClientID: "c1"}, false},
		{"coordinator only", State{CoordinatorID: "c1"}, false},
		{"mismatch", State{ClientID: "c1", CoordinatorID: "c2"}, false},
		{"match", State{ClientID: "c1", CoordinatorID: "c1"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.state.IsCoordinator(); got != tc.want {
				t.Fatalf("IsCoordinator: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestUpdateFromJoin_RequiresBothKeys(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]string
		wantErr bool
	}{
		{"both present", map[string]string{"session_id": "ABC123", "coordinator_id": "c1"}, false},
		{"missing session_id", map[string]string{"coordinator_id": "c1"}, true},
		{"missing coordinator_id", map[string]string{"session_id": "ABC123"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.UpdateFromJoin(tc.payload)
			if tc.wantErr {
				if !errors.Is(err, ErrMissingKey) {
					t.Fatalf("want ErrMissingKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestUpdateFromJoin_PreservesClientID(t *testing.T) {
	r := NewRegistry()
	r.AssignClientID("me")

	err := r.UpdateFromJoin(map[string]string{"session_id": "ABC123", "coordinator_id": "other"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if got := r.State().ClientID; got != "me" {
		t.Fatalf("client id not preserved: got %q", got)
	}
	if r.State().IsCoordinator() {
		t.Fatalf("joiner must not be coordinator")
	}
}

func TestAssignClientID_OverwriteAllowed(t *testing.T) {
	r := NewRegistry()
	r.AssignClientID("first")
	r.AssignClientID("second")

	if got := r.State().ClientID; got != "second" {
		t.Fatalf("client id: got %q, want second", got)
	}
}

func TestSubscribe_ObserversFireInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	var order []int
	r.Subscribe(func(State) { order = append(order, 1) })
	r.Subscribe(func(State) { order = append(order, 2) })
	r.Subscribe(func(State) { order = append(order, 3) })

	r.UpdateFromSessionStart("ABC123", "c1")

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("observer order: got %v, want [1 2 3]", order)
	}
}

func TestClear_KeepsClientID(t *testing.T) {
	r := NewRegistry()
	r.AssignClientID("me")
	r.UpdateFromSessionStart("ABC123", "me")

	r.Clear()

	s := r.State()
	if s.SessionID != "" || s.CoordinatorID != "" {
		t.Fatalf("session not cleared: %+v", s)
	}
	if s.ClientID != "me" {
		t.Fatalf("client id dropped on clear: %+v", s)
	}
}
