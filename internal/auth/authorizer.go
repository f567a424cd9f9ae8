// Package auth abstracts authorization decisions away from the chat
// transport: the engine asks whether an actor holds a scope, not how that
// was established.
package auth

import "golang.org/x/crypto/bcrypt"

// Scope names a capability an actor may hold.
type Scope string

// ScopeCatalogWrite guards product intake and deletion.
const ScopeCatalogWrite Scope = "catalog:write"

// Actor is the identity a request acts under: the user and the chat the
// request arrived in. For direct self-dialogue ID == ChatID.
type Actor struct {
	ID     int64
	ChatID int64
}

// SelfDialogue reports whether the actor is talking to the engine directly
// rather than through a shared chat.
func (a Actor) SelfDialogue() bool {
	return a.ID == a.ChatID
}

// Authorizer answers capability checks.
type Authorizer interface {
	IsAuthorized(actor Actor, scope Scope) bool
}

// StaticAuthorizer grants catalog write access to a single configured admin
// actor, and only within that actor's direct self-dialogue.
type StaticAuthorizer struct {
	adminID        int64
	passphraseHash []byte
}

// NewStaticAuthorizer builds the authorizer from the configured admin chat
// id and the bcrypt hash of the admin passphrase. The hash may be empty if
// passphrase elevation is unused.
func NewStaticAuthorizer(adminID int64, passphraseHash string) *StaticAuthorizer {
	return &StaticAuthorizer{
		adminID:        adminID,
		passphraseHash: []byte(passphraseHash),
	}
}

// IsAuthorized grants ScopeCatalogWrite to the admin actor in self-dialogue
// and denies everything else.
func (a *StaticAuthorizer) IsAuthorized(actor Actor, scope Scope) bool {
	if scope != ScopeCatalogWrite {
		return false
	}
	return actor.ID == a.adminID && actor.SelfDialogue()
}

// VerifyPassphrase checks a supplied admin passphrase against the configured
// bcrypt hash.
func (a *StaticAuthorizer) VerifyPassphrase(passphrase string) bool {
	if len(a.passphraseHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.passphraseHash, []byte(passphrase)) == nil
}
