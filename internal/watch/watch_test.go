package watch

import "testing"

func TestDispatchByTable(t *testing.T) {
	w := New(nil, nil)

	var userEvents, orderEvents []Event
	w.OnChange("users", func(ev Event) { userEvents = append(userEvents, ev) })
	w.OnChange("orders", func(ev Event) { orderEvents = append(orderEvents, ev) })

	w.dispatch(Event{Table: "users", Op: "UPDATE", ID: "1"})
	w.dispatch(Event{Table: "orders", Op: "INSERT", ID: "abc"})
	w.dispatch(Event{Table: "products", Op: "DELETE", ID: "p1"})

	if len(userEvents) != 1 || userEvents[0].ID != "1" {
		t.Fatalf("user events = %+v, want one event with id 1", userEvents)
	}
	if len(orderEvents) != 1 || orderEvents[0].Op != "INSERT" {
		t.Fatalf("order events = %+v, want one INSERT", orderEvents)
	}
}

func TestDispatchMultipleHandlers(t *testing.T) {
	w := New(nil, nil)

	calls := 0
	w.OnChange("users", func(Event) { calls++ })
	w.OnChange("users", func(Event) { calls++ })

	w.dispatch(Event{Table: "users"})

	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
