package flow

import (
	"strings"

	"klinikbot/core/intake"
	"klinikbot/core/session"
	"klinikbot/core/wablas"
)

// Mutation describes what to do with the sender's session after a decision.
type Mutation int

const (
	MutationNone Mutation = iota
	MutationSet
	MutationClear
)

// Reply is an outbound message, optionally carrying tappable choices.
type Reply struct {
	Text    string
	Buttons []wablas.Button
}

// Decision is the full outcome for one inbound event: the reply to send, the
// session mutation to apply, and an optional intake record to forward.
type Decision struct {
	Reply      Reply
	Mutation   Mutation
	Session    session.Session
	Submission *intake.Record
	Action     string
}

// Decide maps an inbound event and the sender's current session (nil when
// absent) to a Decision. It is pure: all side effects are carried out by the
// caller.
//
// Resets win over everything, including a half-filled form. After that,
// session-bearing steps are checked before session-less menu paths so that a
// digit typed mid-flow is never mistaken for a fresh menu selection.
func Decide(ev *InboundEvent, sess *session.Session) Decision {
	if resetVocabulary[ev.Text] {
		text := msgWelcome
		if sess != nil && sess.Step == session.StepChatMode {
			text = msgMainMenu
		}
		return Decision{
			Reply:    Reply{Text: text, Buttons: menuButtons()},
			Mutation: MutationClear,
			Action:   "menu_sent",
		}
	}

	if sess != nil {
		switch sess.Step {
		case session.StepChooseMethod:
			return decideMethod(ev, sess)
		case session.StepFillForm:
			return decideForm(ev, sess)
		case session.StepChatMode:
			return Decision{
				Reply:  Reply{Text: msgChatAck(ev.RawText)},
				Action: "chat_message_received",
			}
		}
	}

	if layanan := matchService(ev.Text); layanan != "" {
		return Decision{
			Reply:    Reply{Text: msgMethodPrompt(layanan), Buttons: methodButtons()},
			Mutation: MutationSet,
			Session:  session.Session{Step: session.StepChooseMethod, Layanan: layanan},
			Action:   "method_choice_sent",
		}
	}

	if ev.Text == "5" || strings.Contains(ev.Text, "chat") {
		return Decision{
			Reply:    Reply{Text: msgChatMode},
			Mutation: MutationSet,
			Session:  session.Session{Step: session.StepChatMode},
			Action:   "chat_mode_activated",
		}
	}

	return Decision{
		Reply:  Reply{Text: msgUnknown},
		Action: "unknown_command",
	}
}

func decideMethod(ev *InboundEvent, sess *session.Session) Decision {
	var metode string
	switch ev.Text {
	case "1", "offline":
		metode = labelOffline
	case "2", "online":
		metode = labelOnline
	default:
		return Decision{
			Reply:  Reply{Text: msgUnknown},
			Action: "unknown_command",
		}
	}

	return Decision{
		Reply:    Reply{Text: msgFormPrompt(metode)},
		Mutation: MutationSet,
		Session:  session.Session{Step: session.StepFillForm, Layanan: sess.Layanan, Metode: metode},
		Action:   "form_request_sent",
	}
}

func decideForm(ev *InboundEvent, sess *session.Session) Decision {
	form := ParseIntakeForm(ev.RawText)
	if !form.Complete() {
		return Decision{
			Reply:  Reply{Text: msgFormIncomplete},
			Action: "validation_failed",
		}
	}

	return Decision{
		Reply:    Reply{Text: msgConfirmation(form, sess.Layanan, sess.Metode)},
		Mutation: MutationClear,
		Submission: &intake.Record{
			Nomor:   ev.Phone,
			Nama:    form.Nama,
			Unit:    form.Unit,
			Jabatan: form.Jabatan,
			Waktu:   form.Waktu,
			Layanan: sess.Layanan,
			Metode:  sess.Metode,
		},
		Action: "registration_completed",
	}
}
