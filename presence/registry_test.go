package presence

import "testing"

func TestMemoryRegistry(t *testing.T) {
	registry := NewMemory()

	if registry.IsOnline(1) {
		t.Error("expected user 1 offline initially")
	}

	registry.Connect(1)
	registry.Connect(2)
	if !registry.IsOnline(1) || !registry.IsOnline(2) {
		t.Error("expected users 1 and 2 online")
	}

	registry.Disconnect(1)
	if registry.IsOnline(1) {
		t.Error("expected user 1 offline after disconnect")
	}
	if !registry.IsOnline(2) {
		t.Error("disconnecting user 1 must not affect user 2")
	}

	// Disconnecting an unknown user is harmless
	registry.Disconnect(42)
}

func TestMemoryRegistryConnectTwice(t *testing.T) {
	registry := NewMemory()

	registry.Connect(1)
	registry.Connect(1)
	registry.Disconnect(1)

	if registry.IsOnline(1) {
		t.Error("expected user 1 offline after single disconnect")
	}
}
