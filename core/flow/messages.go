package flow

import (
	"fmt"
	"strings"

	"klinikbot/core/wablas"
)

// Service labels offered on the main menu, keyed by their menu digit.
var serviceByDigit = map[string]string{
	"1": "Tata Kelola & Manajemen Risiko",
	"2": "Pengadaan Barang/Jasa",
	"3": "Pengelolaan Keuangan & BMN",
	"4": "Kinerja & Kepegawaian",
}

// serviceKeywords lets users pick a topic by name instead of its digit.
// Matching is substring-based on normalized text.
var serviceKeywords = []struct {
	keyword string
	digit   string
}{
	{"tata kelola", "1"},
	{"manajemen risiko", "1"},
	{"pengadaan", "2"},
	{"barang/jasa", "2"},
	{"keuangan", "3"},
	{"bmn", "3"},
	{"kinerja", "4"},
	{"kepegawaian", "4"},
}

// resetVocabulary triggers a session reset and the main menu from any state.
var resetVocabulary = map[string]bool{
	"hai":           true,
	"halo":          true,
	"menu":          true,
	"mulai":         true,
	"start":         true,
	"batal":         true,
	"selamat pagi":  true,
	"selamat siang": true,
	"selamat sore":  true,
	"selamat malam": true,
}

const (
	labelOffline = "Offline"
	labelOnline  = "Online"
)

func menuButtons() []wablas.Button {
	return []wablas.Button{
		{Label: "1️⃣ Tata Kelola & Manajemen Risiko", ID: "1"},
		{Label: "2️⃣ Pengadaan Barang/Jasa", ID: "2"},
		{Label: "3️⃣ Pengelolaan Keuangan & BMN", ID: "3"},
		{Label: "4️⃣ Kinerja & Kepegawaian", ID: "4"},
		{Label: "💬 Chat dengan Tim Inspektorat", ID: "5"},
	}
}

func methodButtons() []wablas.Button {
	return []wablas.Button{
		{Label: "🏢 Offline (Tatap Muka)", ID: "1"},
		{Label: "💻 Online (Virtual)", ID: "2"},
	}
}

const msgWelcome = "🏥 *Selamat datang di Layanan Klinik Konsultasi*\n" +
	"*Inspektorat LKPP*\n\n" +
	"Silakan pilih layanan konsultasi sesuai kebutuhan Anda:"

const msgMainMenu = "🏥 *Menu Utama*\n\n" +
	"Silakan pilih layanan konsultasi:"

func msgMethodPrompt(layanan string) string {
	return fmt.Sprintf("✅ Anda memilih layanan:\n*%s*\n\n"+
		"Mohon konfirmasi metode pelaksanaan konsultasi:", layanan)
}

func msgFormPrompt(metode string) string {
	return fmt.Sprintf("📝 *Form Pendaftaran Konsultasi %s*\n\n", metode) +
		"Dimohon kesediaannya untuk mengisi data berikut:\n\n" +
		"Format pengisian:\n" +
		"```\n" +
		"Nama: [Nama lengkap Anda]\n" +
		"Unit: [Unit organisasi]\n" +
		"Jabatan: [Jabatan Anda]\n" +
		"Waktu: [Hari/Tanggal dan Jam]\n" +
		"```\n\n" +
		"Contoh:\n" +
		"```\n" +
		"Nama: Budi Santoso\n" +
		"Unit: Divisi Keuangan\n" +
		"Jabatan: Staff\n" +
		"Waktu: Senin, 4 Nov 2025 - 10:00 WIB\n" +
		"```"
}

const msgChatMode = "💬 *Chat dengan Tim Inspektorat*\n\n" +
	"Silakan ketik pesan Anda, dan tim kami akan merespons secepat mungkin.\n\n" +
	"Ketik *menu* untuk kembali ke menu utama."

func msgChatAck(rawText string) string {
	return "✅ Pesan Anda telah kami terima:\n" +
		fmt.Sprintf("%q\n\n", rawText) +
		"Tim kami akan segera merespons. Terima kasih!"
}

const msgFormIncomplete = "❌ *Data tidak lengkap!*\n\n" +
	"Pastikan Anda mengisi semua field:\n" +
	"- Nama\n" +
	"- Unit\n" +
	"- Jabatan\n" +
	"- Waktu\n\n" +
	"Silakan kirim ulang dengan format yang benar."

func msgConfirmation(form IntakeForm, layanan, metode string) string {
	return "✅ *Pendaftaran Berhasil!*\n\n" +
		fmt.Sprintf("Nama: %s\n", form.Nama) +
		fmt.Sprintf("Unit: %s\n", form.Unit) +
		fmt.Sprintf("Jabatan: %s\n", form.Jabatan) +
		fmt.Sprintf("Waktu: %s\n", form.Waktu) +
		fmt.Sprintf("Layanan: %s\n", layanan) +
		fmt.Sprintf("Metode: %s\n\n", metode) +
		"Terima kasih telah menghubungi Klinik Konsultasi Inspektorat. " +
		"Permintaan Anda telah kami terima, dan tim kami akan segera menghubungi Anda untuk tindak lanjut.\n\n" +
		"Ketik *menu* untuk layanan lainnya."
}

const msgForwardFailed = "⚠️ *Pendaftaran Belum Tersimpan*\n\n" +
	"Mohon maaf, terjadi kendala saat menyimpan data Anda. " +
	"Silakan kirim ulang form yang sama beberapa saat lagi."

const msgUnknown = "Maaf, saya tidak memahami perintah tersebut. 🤔\n\n" +
	"Ketik *menu* untuk melihat pilihan layanan."

// renderNumbered converts a rich reply into plain text with the options
// listed by number. Used when the send-button endpoint fails.
func renderNumbered(text string, buttons []wablas.Button) string {
	if len(buttons) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n")
	for i, btn := range buttons {
		fmt.Fprintf(&b, "\n%d. %s", i+1, btn.Label)
	}
	b.WriteString("\n\nBalas dengan nomor pilihan Anda.")
	return b.String()
}

// matchService resolves a normalized text to a service label, by digit or by
// topic keyword. Returns "" when nothing matches.
func matchService(text string) string {
	if label, ok := serviceByDigit[text]; ok {
		return label
	}
	for _, kw := range serviceKeywords {
		if strings.Contains(text, kw.keyword) {
			return serviceByDigit[kw.digit]
		}
	}
	return ""
}
