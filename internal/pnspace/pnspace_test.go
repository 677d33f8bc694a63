package pnspace

import "testing"

func TestMapSetAndHasSendable(t *testing.T) {
	t.Parallel()

	m := NewMap()

	if m.HasSendable(0) {
		t.Fatal("HasSendable on empty map = true, want false")
	}

	m.SetSendable(0, true)
	if !m.HasSendable(0) {
		t.Fatal("HasSendable after SetSendable(true) = false, want true")
	}

	m.SetSendable(0, false)
	if m.HasSendable(0) {
		t.Fatal("HasSendable after SetSendable(false) = true, want false")
	}
}

func TestMapUnknownPathIsFalse(t *testing.T) {
	t.Parallel()

	m := NewMap()
	m.SetSendable(0, true)

	if m.HasSendable(7) {
		t.Fatal("HasSendable(unknown path) = true, want false")
	}
}
