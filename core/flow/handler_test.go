package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"klinikbot/core/intake"
	"klinikbot/core/session"
	"klinikbot/core/wablas"
)

type sentMessage struct {
	phone   string
	text    string
	buttons []wablas.Button
}

type fakeGateway struct {
	sent       []sentMessage
	textErr    error
	buttonsErr error
}

func (g *fakeGateway) SendText(_ context.Context, phone, message string) error {
	if g.textErr != nil {
		return g.textErr
	}
	g.sent = append(g.sent, sentMessage{phone: phone, text: message})
	return nil
}

func (g *fakeGateway) SendButtons(_ context.Context, phone, message string, buttons []wablas.Button) error {
	if g.buttonsErr != nil {
		return g.buttonsErr
	}
	g.sent = append(g.sent, sentMessage{phone: phone, text: message, buttons: buttons})
	return nil
}

type fakeForwarder struct {
	records []intake.Record
	err     error
}

func (f *fakeForwarder) Forward(_ context.Context, rec intake.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func newTestHandler() (*Handler, *fakeGateway, *fakeForwarder, session.Store) {
	gw := &fakeGateway{}
	fwd := &fakeForwarder{}
	store := session.NewMemoryStore(30 * time.Minute)
	return NewHandler(store, gw, fwd, "+628999"), gw, fwd, store
}

func payload(phone, message string) []byte {
	return []byte(fmt.Sprintf(`{"phone":%q,"message":%q,"messageType":"text"}`, phone, message))
}

func TestHandleFullRegistrationScenario(t *testing.T) {
	ctx := context.Background()
	h, gw, fwd, store := newTestHandler()

	out := h.Handle(ctx, payload("+620001", "menu"))
	if out.Status != "ok" || out.Action != "menu_sent" {
		t.Fatalf("menu outcome = %+v", out)
	}
	if sess, _ := store.Get(ctx, "+620001"); sess != nil {
		t.Fatalf("menu must clear the session, got %+v", sess)
	}
	if len(gw.sent) != 1 || len(gw.sent[0].buttons) != 5 {
		t.Fatalf("menu send = %+v", gw.sent)
	}

	out = h.Handle(ctx, payload("+620001", "2"))
	if out.Action != "method_choice_sent" {
		t.Fatalf("service outcome = %+v", out)
	}
	sess, _ := store.Get(ctx, "+620001")
	if sess == nil || sess.Step != session.StepChooseMethod || sess.Layanan != "Pengadaan Barang/Jasa" {
		t.Fatalf("session after service pick = %+v", sess)
	}

	out = h.Handle(ctx, payload("+620001", "2"))
	if out.Action != "form_request_sent" {
		t.Fatalf("method outcome = %+v", out)
	}
	sess, _ = store.Get(ctx, "+620001")
	if sess == nil || sess.Step != session.StepFillForm || sess.Metode != "Online" {
		t.Fatalf("session after method pick = %+v", sess)
	}

	out = h.Handle(ctx, payload("+620001", canonicalForm))
	if out.Action != "registration_completed" {
		t.Fatalf("form outcome = %+v", out)
	}
	if sess, _ := store.Get(ctx, "+620001"); sess != nil {
		t.Fatalf("completed registration must clear the session, got %+v", sess)
	}
	if len(fwd.records) != 1 {
		t.Fatalf("records = %+v", fwd.records)
	}
	rec := fwd.records[0]
	if rec.Nomor != "+620001" || rec.Layanan != "Pengadaan Barang/Jasa" || rec.Metode != "Online" || rec.Nama != "Budi Santoso" {
		t.Fatalf("record = %+v", rec)
	}
	confirmation := gw.sent[len(gw.sent)-1].text
	for _, want := range []string{"Pengadaan Barang/Jasa", "Online"} {
		if !strings.Contains(confirmation, want) {
			t.Fatalf("confirmation missing %q:\n%s", want, confirmation)
		}
	}
}

func TestHandleForwardFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	h, gw, fwd, store := newTestHandler()
	_ = store.Set(ctx, "+620001", session.Session{Step: session.StepFillForm, Layanan: "Pengadaan Barang/Jasa", Metode: "Online"})
	fwd.err = errors.New("sink down")

	out := h.Handle(ctx, payload("+620001", canonicalForm))
	if out.Status != "ok" || out.Action != "registration_forward_failed" {
		t.Fatalf("outcome = %+v", out)
	}
	sess, _ := store.Get(ctx, "+620001")
	if sess == nil || sess.Step != session.StepFillForm {
		t.Fatalf("session must survive a failed forward, got %+v", sess)
	}
	if got := gw.sent[len(gw.sent)-1].text; !strings.Contains(got, "Belum Tersimpan") {
		t.Fatalf("reply = %q", got)
	}
}

func TestHandleSelfEchoIsNoop(t *testing.T) {
	ctx := context.Background()
	h, gw, fwd, store := newTestHandler()
	_ = store.Set(ctx, "+620001", session.Session{Step: session.StepChatMode})

	out := h.Handle(ctx, []byte(`{"phone":"+620001","message":"menu","isFromMe":true}`))
	if out.Status != "ignored" || out.Reason != string(RejectSelfEcho) {
		t.Fatalf("outcome = %+v", out)
	}
	if len(gw.sent) != 0 || len(fwd.records) != 0 {
		t.Fatal("self echo must not produce side effects")
	}
	if sess, _ := store.Get(ctx, "+620001"); sess == nil || sess.Step != session.StepChatMode {
		t.Fatalf("self echo must not touch the session, got %+v", sess)
	}
}

func TestHandleBotNumberSuppressed(t *testing.T) {
	h, gw, _, _ := newTestHandler()
	out := h.Handle(context.Background(), payload("+628999", "menu"))
	if out.Status != "ignored" || out.Reason != string(RejectSelfEcho) {
		t.Fatalf("outcome = %+v", out)
	}
	if len(gw.sent) != 0 {
		t.Fatal("no reply expected for the bot's own number")
	}
}

func TestHandleButtonFailureFallsBackToNumberedText(t *testing.T) {
	h, gw, _, _ := newTestHandler()
	gw.buttonsErr = errors.New("button endpoint 500")

	out := h.Handle(context.Background(), payload("+620001", "menu"))
	if out.Status != "ok" {
		t.Fatalf("outcome = %+v", out)
	}
	if len(gw.sent) != 1 || gw.sent[0].buttons != nil {
		t.Fatalf("sent = %+v", gw.sent)
	}
	if !strings.Contains(gw.sent[0].text, "5. 💬 Chat dengan Tim Inspektorat") {
		t.Fatalf("fallback text = %q", gw.sent[0].text)
	}
}

func TestHandleSendFailureStillAcks(t *testing.T) {
	h, gw, _, store := newTestHandler()
	gw.textErr = errors.New("gateway timeout")
	gw.buttonsErr = errors.New("gateway timeout")

	out := h.Handle(context.Background(), payload("+620001", "2"))
	if out.Status != "ok" || out.Action != "method_choice_sent" {
		t.Fatalf("outcome = %+v", out)
	}
	// The session transition still happens even when the reply is lost.
	sess, _ := store.Get(context.Background(), "+620001")
	if sess == nil || sess.Step != session.StepChooseMethod {
		t.Fatalf("session = %+v", sess)
	}
}

func TestHandleMalformedPayloadAcked(t *testing.T) {
	h, _, _, _ := newTestHandler()
	out := h.Handle(context.Background(), []byte(`not-json`))
	if out.Status != "ignored" || out.Reason != string(RejectMalformed) {
		t.Fatalf("outcome = %+v", out)
	}
}
