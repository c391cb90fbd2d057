package dto

// TokenResponse carries the HS256 pair minted once a session is fully
// authenticated. ExpiresIn is the access token lifetime in seconds.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
