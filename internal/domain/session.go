package domain

// Session is the locally persisted proof of authentication: the user's
// identity plus the access/refresh token pair. The backend's field names are
// kept so the stored record matches what the API returned.
type Session struct {
	UserID       int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether the session carries everything authenticated
// calls need. Partial records (an email without tokens, a lone access
// token) are treated the same as no session at all.
func (s *Session) Complete() bool {
	return s != nil && s.Email != "" && s.AccessToken != "" && s.RefreshToken != ""
}
