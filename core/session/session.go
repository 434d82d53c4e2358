package session

import (
	"context"
	"time"
)

// Step identifies the stage of the intake conversation for a sender.
type Step string

const (
	// StepChooseMethod means a service was selected and the bot is waiting
	// for the delivery method (offline/online).
	StepChooseMethod Step = "choose_method"
	// StepFillForm means the bot is waiting for the four-field intake form.
	StepFillForm Step = "fill_form"
	// StepChatMode routes free-form messages to the human team.
	StepChatMode Step = "chat_mode"
)

// Valid reports whether the step is one of the known conversation stages.
// Stored records with any other step value are treated as corrupt.
func (s Step) Valid() bool {
	switch s {
	case StepChooseMethod, StepFillForm, StepChatMode:
		return true
	}
	return false
}

// Session is the per-sender conversation state. At most one session exists
// per phone number at a time; absence of a record means no session.
type Session struct {
	Step    Step      `db:"step"`
	Layanan string    `db:"layanan"`
	Metode  string    `db:"metode"`
	Touched time.Time `db:"touched_at"`
}

// Store persists at most one session per sender phone.
//
// Get enforces the expiry invariant: a record untouched for longer than the
// TTL, or one that fails to decode, is deleted and reported absent, never
// surfaced as an error. Set overwrites and refreshes the timestamp.
//
// The Get-mutate-Set sequence per sender is not transactional: two
// near-simultaneous messages from the same sender may race and the later Set
// wins. Accepted weak-consistency point; conversational flows are sequential
// per human sender.
type Store interface {
	Get(ctx context.Context, phone string) (*Session, error)
	Set(ctx context.Context, phone string, sess Session) error
	Clear(ctx context.Context, phone string) error
}
