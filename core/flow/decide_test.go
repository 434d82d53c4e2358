package flow

import (
	"strings"
	"testing"

	"klinikbot/core/session"
)

func event(phone, raw string) *InboundEvent {
	return &InboundEvent{
		Phone:   phone,
		RawText: raw,
		Text:    strings.ToLower(strings.TrimSpace(raw)),
	}
}

func TestDecideResetAlwaysShowsMenu(t *testing.T) {
	states := map[string]*session.Session{
		"no session":    nil,
		"choose_method": {Step: session.StepChooseMethod, Layanan: "Pengadaan Barang/Jasa"},
		"fill_form":     {Step: session.StepFillForm, Layanan: "Pengadaan Barang/Jasa", Metode: "Online"},
		"chat_mode":     {Step: session.StepChatMode},
	}
	for name, sess := range states {
		for _, word := range []string{"menu", "hai", "halo", "mulai", "start", "batal", "selamat pagi"} {
			t.Run(name+"/"+word, func(t *testing.T) {
				d := Decide(event("+620001", word), sess)
				if d.Mutation != MutationClear {
					t.Fatalf("mutation = %v, want clear", d.Mutation)
				}
				if len(d.Reply.Buttons) != 5 {
					t.Fatalf("menu must carry 5 options, got %d", len(d.Reply.Buttons))
				}
			})
		}
	}
}

func TestDecideServiceSelectionByDigit(t *testing.T) {
	d := Decide(event("+620001", "2"), nil)
	if d.Mutation != MutationSet {
		t.Fatalf("mutation = %v", d.Mutation)
	}
	if d.Session.Step != session.StepChooseMethod || d.Session.Layanan != "Pengadaan Barang/Jasa" {
		t.Fatalf("session = %+v", d.Session)
	}
	if len(d.Reply.Buttons) != 2 {
		t.Fatalf("method prompt must carry 2 options, got %d", len(d.Reply.Buttons))
	}
	if !strings.Contains(d.Reply.Text, "Pengadaan Barang/Jasa") {
		t.Fatalf("reply = %q", d.Reply.Text)
	}
}

func TestDecideServiceSelectionByKeyword(t *testing.T) {
	d := Decide(event("+620001", "mau konsultasi pengadaan dong"), nil)
	if d.Session.Layanan != "Pengadaan Barang/Jasa" {
		t.Fatalf("layanan = %q", d.Session.Layanan)
	}
	d = Decide(event("+620001", "soal kepegawaian"), nil)
	if d.Session.Layanan != "Kinerja & Kepegawaian" {
		t.Fatalf("layanan = %q", d.Session.Layanan)
	}
}

func TestDecideDigitWithActiveSessionIsNotServiceSelection(t *testing.T) {
	sess := &session.Session{Step: session.StepChooseMethod, Layanan: "Tata Kelola & Manajemen Risiko"}
	d := Decide(event("+620001", "2"), sess)
	if d.Session.Step != session.StepFillForm {
		t.Fatalf("digit in choose_method must pick a method, got %+v", d)
	}
	if d.Session.Metode != "Online" {
		t.Fatalf("metode = %q", d.Session.Metode)
	}
	if d.Session.Layanan != "Tata Kelola & Manajemen Risiko" {
		t.Fatalf("layanan must be preserved, got %q", d.Session.Layanan)
	}
}

func TestDecideMethodChoices(t *testing.T) {
	sess := &session.Session{Step: session.StepChooseMethod, Layanan: "Pengelolaan Keuangan & BMN"}
	for text, want := range map[string]string{
		"1": "Offline", "offline": "Offline",
		"2": "Online", "online": "Online",
	} {
		d := Decide(event("+620001", text), sess)
		if d.Session.Step != session.StepFillForm || d.Session.Metode != want {
			t.Fatalf("text %q: session = %+v, want metode %s", text, d.Session, want)
		}
		if !strings.Contains(d.Reply.Text, "Form Pendaftaran") {
			t.Fatalf("text %q: reply = %q", text, d.Reply.Text)
		}
	}

	d := Decide(event("+620001", "besok saja"), sess)
	if d.Mutation != MutationNone || d.Action != "unknown_command" {
		t.Fatalf("unrecognized method input: %+v", d)
	}
}

func TestDecideChatMode(t *testing.T) {
	d := Decide(event("+620001", "5"), nil)
	if d.Session.Step != session.StepChatMode || d.Mutation != MutationSet {
		t.Fatalf("decision = %+v", d)
	}

	sess := &session.Session{Step: session.StepChatMode}
	d = Decide(event("+620001", "Apakah bisa konsultasi besok?"), sess)
	if d.Mutation != MutationNone {
		t.Fatalf("chat message must not mutate the session, got %v", d.Mutation)
	}
	if !strings.Contains(d.Reply.Text, "Apakah bisa konsultasi besok?") {
		t.Fatalf("ack must quote the message, got %q", d.Reply.Text)
	}
}

func TestDecideFormIncompleteKeepsSession(t *testing.T) {
	sess := &session.Session{Step: session.StepFillForm, Layanan: "Pengadaan Barang/Jasa", Metode: "Online"}
	d := Decide(event("+620001", "Nama: Budi\nUnit: Keuangan"), sess)
	if d.Mutation != MutationNone || d.Submission != nil {
		t.Fatalf("incomplete form decision = %+v", d)
	}
	if !strings.Contains(d.Reply.Text, "Data tidak lengkap") {
		t.Fatalf("reply = %q", d.Reply.Text)
	}
}

func TestDecideFormCompleteForwardsAndClears(t *testing.T) {
	sess := &session.Session{Step: session.StepFillForm, Layanan: "Pengadaan Barang/Jasa", Metode: "Online"}
	d := Decide(event("+620001", canonicalForm), sess)
	if d.Mutation != MutationClear {
		t.Fatalf("mutation = %v", d.Mutation)
	}
	if d.Submission == nil {
		t.Fatal("complete form must produce a submission")
	}
	if d.Submission.Nomor != "+620001" || d.Submission.Layanan != "Pengadaan Barang/Jasa" || d.Submission.Metode != "Online" {
		t.Fatalf("submission = %+v", d.Submission)
	}
	for _, want := range []string{"Budi Santoso", "Divisi Keuangan", "Staff", "Senin, 4 Nov 2025 - 10:00 WIB", "Pengadaan Barang/Jasa", "Online"} {
		if !strings.Contains(d.Reply.Text, want) {
			t.Fatalf("confirmation missing %q: %q", want, d.Reply.Text)
		}
	}
}

func TestDecideUnknownWithoutSession(t *testing.T) {
	d := Decide(event("+620001", "9"), nil)
	if d.Action != "unknown_command" || d.Mutation != MutationNone {
		t.Fatalf("decision = %+v", d)
	}
}

func TestRenderNumberedFallback(t *testing.T) {
	got := renderNumbered("Pilih layanan:", menuButtons())
	for _, want := range []string{"1. 1️⃣ Tata Kelola", "5. 💬 Chat dengan Tim Inspektorat", "Balas dengan nomor"} {
		if !strings.Contains(got, want) {
			t.Fatalf("rendered text missing %q:\n%s", want, got)
		}
	}
	if plain := renderNumbered("halo", nil); plain != "halo" {
		t.Fatalf("no buttons must pass text through, got %q", plain)
	}
}
