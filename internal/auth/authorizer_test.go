package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopbot/internal/auth"
)

func TestStaticAuthorizer(t *testing.T) {
	authorizer := auth.NewStaticAuthorizer(100, "")

	assert.True(t, authorizer.IsAuthorized(auth.Actor{ID: 100, ChatID: 100}, auth.ScopeCatalogWrite))

	// Admin acting inside a group chat is not self-dialogue.
	assert.False(t, authorizer.IsAuthorized(auth.Actor{ID: 100, ChatID: -500}, auth.ScopeCatalogWrite))
	// A different actor never holds the scope.
	assert.False(t, authorizer.IsAuthorized(auth.Actor{ID: 7, ChatID: 7}, auth.ScopeCatalogWrite))
	// Unknown scopes are denied outright.
	assert.False(t, authorizer.IsAuthorized(auth.Actor{ID: 100, ChatID: 100}, auth.Scope("orders:read")))
}

func TestVerifyPassphrase(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	authorizer := auth.NewStaticAuthorizer(100, string(hash))
	assert.True(t, authorizer.VerifyPassphrase("open sesame"))
	assert.False(t, authorizer.VerifyPassphrase("wrong"))

	// No configured hash means elevation is disabled, not open.
	assert.False(t, auth.NewStaticAuthorizer(100, "").VerifyPassphrase("open sesame"))
}
