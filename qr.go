package main

import (
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// inviteURL is the link a second device opens to join a room
func inviteURL(publicURL, roomID string) string {
	base := strings.TrimRight(publicURL, "/")
	return base + "/?room=" + url.QueryEscape(roomID)
}

// RoomQRCode renders the room invite link as a PNG
func RoomQRCode(publicURL, roomID string) ([]byte, error) {
	png, err := qrcode.Encode(inviteURL(publicURL, roomID), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr for room %s: %w", roomID, err)
	}
	return png, nil
}
