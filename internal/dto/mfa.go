package dto

type EnableOTPRequest struct {
	Secret string `json:"secret"` // base32, generated client-side at enrollment
}

type BackupTokensResponse struct {
	// Plaintext tokens, shown exactly once. Only hashes are persisted.
	Tokens []string `json:"tokens"`
}
