package storage

import (
	"strings"
	"testing"
	"time"
)

func TestNewKeyID(t *testing.T) {
	a, b := NewKeyID(), NewKeyID()
	if !strings.HasPrefix(a, "key_") {
		t.Errorf("id = %q, want key_ prefix", a)
	}
	if len(a) != len("key_")+32 {
		t.Errorf("len(id) = %d, want %d", len(a), len("key_")+32)
	}
	if a == b {
		t.Error("ids are not unique")
	}
}

func TestKeyInfoRevoked(t *testing.T) {
	var k KeyInfo
	if k.Revoked() {
		t.Error("zero KeyInfo reported revoked")
	}
	now := time.Now()
	k.RevokedAt = &now
	if !k.Revoked() {
		t.Error("Revoked = false with RevokedAt set")
	}
}
