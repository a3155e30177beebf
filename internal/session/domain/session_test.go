package domain

import (
	"testing"
	"time"
)

func TestLive(t *testing.T) {
	now := time.Now().UTC()
	s := &Session{ExpiresAt: now.Add(time.Hour)}

	if !s.Live(now) {
		t.Error("session expiring in an hour should be live now")
	}
	if s.Live(now.Add(time.Hour)) {
		t.Error("session at its exact expiry should not be live")
	}
	if s.Live(now.Add(2 * time.Hour)) {
		t.Error("session past expiry should not be live")
	}
}
