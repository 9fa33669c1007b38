package model

type Session struct {
	AccIdx      int
	PublicKey   string
	Proxy       string
	AuthStatus  string
	ClaimStatus string
	Points      string
	NextClaimAt string
}

func (s *Session) LoggingSession() *Session {
	return s
}
