package binder

import (
	"github.com/eventflow/eventflow/internal/authext"
	"github.com/eventflow/eventflow/internal/models"
)

// Phase is the informal state machine over AuthState. It runs for the life of
// the client; there is no terminal phase.
type Phase string

const (
	PhaseResolving Phase = "resolving"
	PhaseSignedOut Phase = "signed_out"
	// session established, profile fetch pending or failed. Consumers must
	// treat this as "not yet ready", never as signed out.
	PhaseNoProfile Phase = "authenticated_no_profile"
	PhaseReady     Phase = "authenticated"
)

// AuthState is the last-published snapshot of who is signed in. Profile is
// non-nil only when Session is non-nil; Loading is true only during the
// initial session resolution.
type AuthState struct {
	Session *authext.Session `json:"session"`
	Profile *models.Profile  `json:"profile"`
	Loading bool             `json:"loading"`
}

func (s AuthState) Phase() Phase {
	switch {
	case s.Loading && s.Session == nil:
		return PhaseResolving
	case s.Session == nil:
		return PhaseSignedOut
	case s.Profile == nil:
		return PhaseNoProfile
	default:
		return PhaseReady
	}
}
