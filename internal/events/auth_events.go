package events

import "time"

// Audit payloads recorded alongside authentication state changes.

type LoginSucceeded struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Pending   []string  `json:"pending,omitempty"`
	At        time.Time `json:"at"`
}

type SecondFactorVerified struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	Remaining int       `json:"remaining"`
	At        time.Time `json:"at"`
}

type SessionRevoked struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	At        time.Time `json:"at"`
}
