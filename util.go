package main

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// roomIDLen is the length of the shareable room code
const roomIDLen = 6

// GenerateID returns a random UUIDv4 string
func GenerateID() string {
	return uuid.NewString()
}

// GenerateRoomID returns 6 lowercase hex characters taken from a fresh UUID
func GenerateRoomID() string {
	return strings.ToLower(uuid.NewString()[:roomIDLen])
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// round1 rounds to one decimal place to keep state frames small
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
