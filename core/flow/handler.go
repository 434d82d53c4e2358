// Package flow implements the conversation state machine behind the
// consultation intake bot: normalizing inbound gateway events, deciding
// replies and session transitions, and driving the gateway and intake sink.
package flow

import (
	"context"
	"log/slog"

	"klinikbot/core/intake"
	"klinikbot/core/logger"
	"klinikbot/core/session"
	"klinikbot/core/wablas"
)

const componentName = "flow"

// Gateway sends replies to the end user.
type Gateway interface {
	SendText(ctx context.Context, phone, message string) error
	SendButtons(ctx context.Context, phone, message string, buttons []wablas.Button) error
}

// Forwarder persists completed intake records to the external sink.
type Forwarder interface {
	Forward(ctx context.Context, rec intake.Record) error
}

// Outcome is the acknowledgement body returned to the webhook caller. It is
// informational only; the gateway does not act on it.
type Outcome struct {
	Status string `json:"status"`
	Action string `json:"action,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Handler wires the normalizer, session store, decision logic, gateway and
// forwarder into one inbound-event pipeline.
type Handler struct {
	store     session.Store
	gateway   Gateway
	forwarder Forwarder
	botNumber string
}

func NewHandler(store session.Store, gateway Gateway, forwarder Forwarder, botNumber string) *Handler {
	return &Handler{
		store:     store,
		gateway:   gateway,
		forwarder: forwarder,
		botNumber: botNumber,
	}
}

// Handle processes one raw inbound payload end to end. It never fails the
// inbound request: every path, including internal errors, resolves to an
// acknowledgement for the webhook caller.
func (h *Handler) Handle(ctx context.Context, raw []byte) Outcome {
	ev, reason := Normalize(raw, h.botNumber)
	if reason != RejectNone {
		logger.Debug(ctx, componentName, "event.rejected",
			slog.String("reason", string(reason)),
		)
		return Outcome{Status: "ignored", Reason: string(reason)}
	}

	ctx = logger.WithPhone(ctx, ev.Phone)

	sess, err := h.store.Get(ctx, ev.Phone)
	if err != nil {
		// A broken store read degrades to "no session" so the user at
		// least gets the menu path instead of silence.
		logger.Warn(ctx, componentName, "session.get.fail",
			slog.String("err", err.Error()),
		)
		sess = nil
	}

	decision := Decide(ev, sess)

	if decision.Submission != nil {
		if err := h.forwarder.Forward(ctx, *decision.Submission); err != nil {
			// The record was complete but not stored. Keep the session
			// at fill_form so the user can resubmit as-is.
			decision.Reply = Reply{Text: msgForwardFailed}
			decision.Mutation = MutationNone
			decision.Action = "registration_forward_failed"
		}
	}

	h.dispatch(ctx, ev.Phone, decision.Reply)
	h.applyMutation(ctx, ev.Phone, decision)

	logger.Info(ctx, componentName, "event.handled",
		slog.String("action", decision.Action),
		slog.String("step", currentStep(sess)),
	)
	return Outcome{Status: "ok", Action: decision.Action}
}

// dispatch sends the reply, degrading a rich reply to numbered plain text
// when the button endpoint fails. Send failures are logged and swallowed.
func (h *Handler) dispatch(ctx context.Context, phone string, reply Reply) {
	if reply.Text == "" {
		return
	}

	if len(reply.Buttons) > 0 {
		if err := h.gateway.SendButtons(ctx, phone, reply.Text, reply.Buttons); err == nil {
			return
		}
		logger.Warn(ctx, componentName, "reply.buttons.fallback")
		if err := h.gateway.SendText(ctx, phone, renderNumbered(reply.Text, reply.Buttons)); err != nil {
			logger.Warn(ctx, componentName, "reply.send.fail",
				slog.String("err", err.Error()),
			)
		}
		return
	}

	if err := h.gateway.SendText(ctx, phone, reply.Text); err != nil {
		logger.Warn(ctx, componentName, "reply.send.fail",
			slog.String("err", err.Error()),
		)
	}
}

func (h *Handler) applyMutation(ctx context.Context, phone string, decision Decision) {
	var err error
	switch decision.Mutation {
	case MutationSet:
		err = h.store.Set(ctx, phone, decision.Session)
	case MutationClear:
		err = h.store.Clear(ctx, phone)
	default:
		return
	}
	if err != nil {
		logger.Warn(ctx, componentName, "session.write.fail",
			slog.String("err", err.Error()),
		)
	}
}

func currentStep(sess *session.Session) string {
	if sess == nil {
		return "none"
	}
	return string(sess.Step)
}
