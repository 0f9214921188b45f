package whitelist

import (
	"errors"
	"testing"
)

type mockState struct {
	owner   *[20]byte
	members map[[20]byte]bool
}

func newMockState() *mockState {
	return &mockState{members: make(map[[20]byte]bool)}
}

func (m *mockState) WhitelistOwnerGet() ([20]byte, bool, error) {
	if m.owner == nil {
		return [20]byte{}, false, nil
	}
	return *m.owner, true, nil
}

func (m *mockState) WhitelistOwnerPut(owner [20]byte) error {
	m.owner = &owner
	return nil
}

func (m *mockState) WhitelistMemberGet(account [20]byte) (bool, error) {
	return m.members[account], nil
}

func (m *mockState) WhitelistMemberPut(account [20]byte, member bool) error {
	m.members[account] = member
	return nil
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func TestInitializeOnce(t *testing.T) {
	wl := New()
	wl.SetState(newMockState())
	if err := wl.Initialize(addr(0x01)); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := wl.Initialize(addr(0x02)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second initialize must fail, got %v", err)
	}
}

func TestOwnerGating(t *testing.T) {
	wl := New()
	wl.SetState(newMockState())
	owner := addr(0x01)
	stranger := addr(0x02)
	member := addr(0x03)

	if err := wl.Add(owner, member); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("mutation before initialize must fail, got %v", err)
	}
	if err := wl.Initialize(owner); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := wl.Add(stranger, member); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger add must fail, got %v", err)
	}
	if err := wl.Add(owner, member); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	ok, err := wl.IsWhitelisted(member)
	if err != nil || !ok {
		t.Fatalf("member not whitelisted: ok=%v err=%v", ok, err)
	}
	if err := wl.Remove(stranger, member); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger remove must fail, got %v", err)
	}
	if err := wl.Remove(owner, member); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	ok, err = wl.IsWhitelisted(member)
	if err != nil || ok {
		t.Fatalf("member still whitelisted after remove: ok=%v err=%v", ok, err)
	}
}

func TestUnknownAccountIsNotMember(t *testing.T) {
	wl := New()
	wl.SetState(newMockState())
	ok, err := wl.IsWhitelisted(addr(0x42))
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if ok {
		t.Fatalf("unknown account reported as member")
	}
}
