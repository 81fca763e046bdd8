package entity

// IssueMode decides what issuing a code does when the identity still holds
// an unexpired one.
type IssueMode int8

const (
	// IssueModeReuse keeps an unexpired code as is. Only when no valid code
	// exists is the counter advanced and a new expiry set.
	IssueModeReuse IssueMode = iota + 1

	// IssueModeRotate always advances the counter and resets the expiry.
	IssueModeRotate
)

func (m IssueMode) String() string {
	switch m {
	case IssueModeReuse:
		return "reuse"
	case IssueModeRotate:
		return "rotate"
	default:
		return "unknown"
	}
}

// Action names a rate-limited entry point. It is also the first segment of
// the limiter key.
type Action string

const (
	ActionConnect      Action = "connect"
	ActionResend       Action = "resend"
	ActionSignIn       Action = "sign_in"
	ActionRegistration Action = "registration"
)

// Actions lists every rate-limited action, in the order they are configured.
var Actions = []Action{ActionConnect, ActionResend, ActionSignIn, ActionRegistration}

// Redirect targets returned by the flows.
const (
	RedirectHome   = "/"
	RedirectSignIn = "/sign-in"
	RedirectSignUp = "/sign-up"
)
