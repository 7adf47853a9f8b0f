package domain

// LoginAttempt is the ephemeral input to a login call. The second-factor
// code may be empty; an enrolled account with an empty code gets a
// challenge, not a rejection. Attempts are never persisted.
type LoginAttempt struct {
	Username         string
	Password         string
	SecondFactorCode string
}

// LoginState discriminates the three terminal outcomes of a login call.
type LoginState int

const (
	LoginAuthenticated LoginState = iota
	LoginChallengeRequired
	LoginRejected
)

// RejectReason describes why a login was rejected. The distinct reasons
// exist for logging and tests; the HTTP boundary collapses them into a
// single category so failure causes cannot be told apart externally.
type RejectReason string

const (
	RejectInvalidCredentials RejectReason = "invalid_credentials"
	RejectInvalidCodeFormat  RejectReason = "invalid_code_format"
	RejectInvalidCode        RejectReason = "invalid_code"
)

// LoginOutcome is the ephemeral result of a login call. Exactly one of the
// three states applies; Token and Identity are set only when authenticated,
// Reason only when rejected.
type LoginOutcome struct {
	State    LoginState
	Token    string
	Identity Identity
	Reason   RejectReason
}

// Authenticated builds a successful outcome carrying the session token.
func Authenticated(token string, identity Identity) LoginOutcome {
	return LoginOutcome{State: LoginAuthenticated, Token: token, Identity: identity}
}

// ChallengeRequired signals that the caller must resubmit with a
// second-factor code. No partial session state is retained; the next
// attempt re-verifies the password from scratch.
func ChallengeRequired() LoginOutcome {
	return LoginOutcome{State: LoginChallengeRequired}
}

// Rejected builds a rejection outcome with the given internal reason.
func Rejected(reason RejectReason) LoginOutcome {
	return LoginOutcome{State: LoginRejected, Reason: reason}
}
