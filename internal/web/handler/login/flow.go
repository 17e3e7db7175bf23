package login

import (
	"github.com/entra-rp/entra-rp/internal/auth"
)

// callbackState is a step of the authorization callback.
type callbackState int

const (
	awaitingCode callbackState = iota
	stateValidated
	tokenExchanged
	sessionEstablished
	rejected
	failed
)

func (s callbackState) String() string {
	switch s {
	case awaitingCode:
		return "awaitingCode"
	case stateValidated:
		return "stateValidated"
	case tokenExchanged:
		return "tokenExchanged"
	case sessionEstablished:
		return "sessionEstablished"
	case rejected:
		return "rejected"
	case failed:
		return "failed"
	default:
		return "unknown"
	}
}

// terminal states end the callback.
func (s callbackState) terminal() bool {
	return s == sessionEstablished || s == rejected || s == failed
}

// callbackFlow carries the data of one callback request between states.
type callbackFlow struct {
	state  callbackState
	code   string
	tokens *auth.TokenSet
	err    error
}

func (f *callbackFlow) advance(next callbackState) {
	f.state = next
}

func (f *callbackFlow) fail(next callbackState, err error) {
	f.state = next
	f.err = err
}
