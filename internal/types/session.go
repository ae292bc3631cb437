package types

// Session carries the per-invocation state shared by the commands of one run.
// It is owned by the top-level dispatcher and is not safe for concurrent use.
type Session struct {
	available bool
}

// NewSession returns a session with the server marked unavailable.
func NewSession() *Session {
	return &Session{}
}

// Available reports the result of the most recent health check.
func (session *Session) Available() bool {
	return session != nil && session.available
}

// SetAvailable records the result of a health check.
func (session *Session) SetAvailable(available bool) {
	if session == nil {
		return
	}
	session.available = available
}

// Reset forces the next operation to check the server again.
func (session *Session) Reset() {
	session.SetAvailable(false)
}
