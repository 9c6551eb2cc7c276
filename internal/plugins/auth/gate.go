package auth

import "strings"

// The profile-completion gate is a pure decision over the request's
// authentication state, so it can be tested exhaustively without an HTTP
// stack. The Echo middleware in middleware.go only translates the decision
// into redirects and context mutation.

// Decision is the gate's verdict for one protected request.
type Decision int

const (
	// DecisionAdmit lets the request through with the principal attached.
	DecisionAdmit Decision = iota

	// DecisionRedirectLogin sends the request to the login page: there is
	// no valid session or the session points at a vanished user.
	DecisionRedirectLogin

	// DecisionRedirectComplete sends an authenticated-but-incomplete
	// principal to the completion flow.
	DecisionRedirectComplete
)

// CompletionPath is the route of the profile completion flow. Requests
// targeting it are exempt from the incomplete-profile redirect, otherwise
// an incomplete principal could never reach the form.
const CompletionPath = "/complete-profile"

// GateState is everything the gate decision depends on.
type GateState struct {
	// HasSession is true when the session token resolved to a user id.
	HasSession bool

	// Principal is the resolved user, nil when resolution failed.
	Principal *User

	// Path is the request path being targeted.
	Path string
}

// Decide evaluates the gate for one request:
//
//	no session / no principal            -> login
//	incomplete, not the completion flow  -> complete-profile
//	otherwise                            -> admit
//
// A complete principal is admitted to the completion path too; the handler
// there redirects them home.
func Decide(s GateState) Decision {
	if !s.HasSession || s.Principal == nil {
		return DecisionRedirectLogin
	}
	if !s.Principal.ProfileComplete() && !isCompletionPath(s.Path) {
		return DecisionRedirectComplete
	}
	return DecisionAdmit
}

// isCompletionPath matches the completion route and its sub-paths.
func isCompletionPath(path string) bool {
	return path == CompletionPath || strings.HasPrefix(path, CompletionPath+"/")
}
