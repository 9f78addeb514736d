package stream

import (
	"testing"
)

func testConnection(id string) *Connection {
	return NewConnection(id, nil)
}

func TestConnectionRegistry_AddRemove(t *testing.T) {
	registry := NewConnectionRegistry()
	conn := testConnection("conn-1")

	registry.Add(conn)

	retrieved, exists := registry.Get("conn-1")
	if !exists {
		t.Error("Expected connection to exist")
	}
	if retrieved.ID != "conn-1" {
		t.Errorf("Expected connection ID %s, got %s", "conn-1", retrieved.ID)
	}

	if registry.Count() != 1 {
		t.Errorf("Expected 1 connection, got %d", registry.Count())
	}

	if !registry.Remove("conn-1") {
		t.Error("Expected first Remove to report removal")
	}
	if registry.Remove("conn-1") {
		t.Error("Expected second Remove to be a no-op")
	}

	if _, exists := registry.Get("conn-1"); exists {
		t.Error("Expected connection to be removed")
	}
	if registry.Count() != 0 {
		t.Errorf("Expected 0 connections, got %d", registry.Count())
	}
}

func TestConnectionRegistry_Subscribers(t *testing.T) {
	registry := NewConnectionRegistry()

	conn1 := testConnection("conn-1")
	conn2 := testConnection("conn-2")
	conn3 := testConnection("conn-3")
	conn1.Subscribe("TSLA")
	conn2.Subscribe("tsla")
	conn3.Subscribe("AAPL")

	registry.Add(conn1)
	registry.Add(conn2)
	registry.Add(conn3)

	subscribers := registry.Subscribers("TSLA")
	if len(subscribers) != 2 {
		t.Errorf("Expected 2 subscribers, got %d", len(subscribers))
	}
	for _, conn := range subscribers {
		if conn.ID == "conn-3" {
			t.Error("Unsubscribed connection must not receive updates")
		}
	}
}

func TestConnectionRegistry_GetAll(t *testing.T) {
	registry := NewConnectionRegistry()
	registry.Add(testConnection("conn-1"))
	registry.Add(testConnection("conn-2"))

	all := registry.GetAll()
	if len(all) != 2 {
		t.Errorf("Expected 2 connections, got %d", len(all))
	}
}
