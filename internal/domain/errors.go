package domain

import "errors"

var (
	// ErrNotSubscribed marks free text from an inactive user. It is a routed
	// outcome, not a failure: the reply prompts the user to subscribe.
	ErrNotSubscribed = errors.New("user is not subscribed")

	// ErrNoConversationRef means we have never seen the user speak and so
	// cannot address a proactive message to them.
	ErrNoConversationRef = errors.New("no conversation reference for user")
)
