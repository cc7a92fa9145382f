package main

import (
	"bytes"
	"testing"
)

func TestInviteURL(t *testing.T) {
	if got := inviteURL("https://arena.example/", "abc123"); got != "https://arena.example/?room=abc123" {
		t.Errorf("unexpected invite url %q", got)
	}
}

func TestRoomQRCode(t *testing.T) {
	png, err := RoomQRCode("http://localhost:8080", "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("expected PNG data")
	}
}
