package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{name: "valid", password: "Passw0rd"},
		{name: "minimum length", password: "Abcdef1"},
		{name: "maximum length", password: "Abcdefghijk1"},
		{name: "too short", password: "Abcde1", wantErr: "7-12 characters"},
		{name: "too long", password: "Abcdefghijkl1", wantErr: "7-12 characters"},
		{name: "empty", password: "", wantErr: "7-12 characters"},
		{name: "missing uppercase", password: "password1", wantErr: "combination"},
		{name: "missing lowercase", password: "PASSWORD1", wantErr: "combination"},
		{name: "missing digit", password: "Password", wantErr: "combination"},
		{name: "punctuation", password: "Passw0rd!", wantErr: "combination"},
		{name: "non ascii", password: "Pässw0rd", wantErr: "combination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, ErrWeakPassword))
		})
	}
}

func TestParseAccountStatus(t *testing.T) {
	got, err := ParseAccountStatus("")
	require.NoError(t, err)
	assert.Equal(t, AccountStatusInactive, got)

	got, err = ParseAccountStatus("disabled")
	require.NoError(t, err)
	assert.Equal(t, AccountStatusDisabled, got)

	_, err = ParseAccountStatus("online")
	assert.Error(t, err)
}

func TestCredential_CopiesInput(t *testing.T) {
	user := []byte("demo")
	secret := []byte("mode")
	cred := NewCredential(user, secret)

	user[0] = 'X'
	secret[0] = 'X'
	assert.Equal(t, []byte("demo"), cred.Username())
	assert.Equal(t, []byte("mode"), cred.Secret())

	got := cred.Secret()
	got[0] = 'Y'
	assert.Equal(t, []byte("mode"), cred.Secret())
}
