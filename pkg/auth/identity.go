package auth

import "errors"

// ErrAlreadyBound is returned when an identity is bound twice.
var ErrAlreadyBound = errors.New("auth: identity already bound")

// Identity is the caller identity of one dispatcher. It is either unset or
// bound to an account; once bound it is authoritative for the dispatcher's
// lifetime.
type Identity struct {
	account   *Account
	sessionID string
}

// Bound reports whether an account has been established.
func (i *Identity) Bound() bool {
	return i != nil && i.account != nil
}

// Account returns the bound account, or nil.
func (i *Identity) Account() *Account {
	if i == nil {
		return nil
	}
	return i.account
}

// SessionID returns the session opened when the identity was bound.
func (i *Identity) SessionID() string {
	if i == nil {
		return ""
	}
	return i.sessionID
}

// Bind records the account and its session.
func (i *Identity) Bind(acc *Account, sessionID string) error {
	if i.account != nil {
		return ErrAlreadyBound
	}
	i.account = acc
	i.sessionID = sessionID
	return nil
}

// TakeSession returns the open session id and forgets it, so it is ended once.
// The account stays bound.
func (i *Identity) TakeSession() string {
	if i == nil {
		return ""
	}
	id := i.sessionID
	i.sessionID = ""
	return id
}
