package dto

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

type SecondFactorRequest struct {
	SessionID string `json:"sessionId"`
	Kind      string `json:"kind"`
	Secret    string `json:"secret"`
}

// LoginResponse is returned by both login steps. When second factors are
// still owed, PendingFactors is non-empty and Tokens is nil; once the session
// is fully authenticated, Tokens is set and PendingFactors is empty.
type LoginResponse struct {
	SessionID      string         `json:"sessionId"`
	PendingFactors []string       `json:"pendingFactors,omitempty"`
	Tokens         *TokenResponse `json:"tokens,omitempty"`
}
