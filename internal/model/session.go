package model

// Session is the caller's authentication state, passed explicitly into each flow.
// The zero value is a signed-out session.
type Session struct {
	UserID string
}

func (s Session) Live() bool {
	return s.UserID != ""
}
