package domain

import "time"

// MaxActiveTokens bounds the per-principal access token history. Appending
// beyond the bound evicts the oldest records.
const MaxActiveTokens = 5

// TokenRecord is one entry in a principal's access token history. The list is
// advisory (session visibility), not an authorization source of truth.
type TokenRecord struct {
	ID          string
	PrincipalID string
	Token       string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	UserAgent   string // originating device/client descriptor
	IPAddress   string // originating network address
}

// TokenPair is what the login and refresh flows return.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int    `json:"expires_in"`           // seconds until access token expiry
}

// SessionView is the redacted token-record shape exposed for device/session
// visibility. The token value itself stays server-side.
type SessionView struct {
	ID        string    `json:"id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// View returns the redacted representation of r.
func (r TokenRecord) View() SessionView {
	return SessionView{
		ID:        r.ID,
		IssuedAt:  r.IssuedAt,
		ExpiresAt: r.ExpiresAt,
		UserAgent: r.UserAgent,
		IPAddress: r.IPAddress,
	}
}
