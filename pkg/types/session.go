package types

// SessionContext is the identity snapshot returned by GET /api/auth/me.
type SessionContext struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
	OrgType  string `json:"org_type"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type SignupRequest struct {
	OrgName  string `json:"org_name"`
	OrgType  string `json:"org_type"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupTenant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OrgType string `json:"org_type"`
}

type SignupResponse struct {
	Tenant *SignupTenant  `json:"tenant,omitempty"`
	Token  *TokenResponse `json:"token,omitempty"`
}
