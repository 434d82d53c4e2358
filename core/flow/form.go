package flow

import "strings"

// IntakeForm is the four-field registration a user submits as free text.
type IntakeForm struct {
	Nama    string
	Unit    string
	Jabatan string
	Waktu   string
}

// Complete reports whether every required field is filled. Partial forms are
// rejected in full.
func (f IntakeForm) Complete() bool {
	return f.Nama != "" && f.Unit != "" && f.Jabatan != "" && f.Waktu != ""
}

// ParseIntakeForm extracts labeled fields from a multi-line submission.
// Labels match case-insensitively at the start of a line, in any order.
// The first match per field wins; unrecognized lines are ignored.
func ParseIntakeForm(raw string) IntakeForm {
	var form IntakeForm
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case form.Nama == "" && strings.HasPrefix(lower, "nama:"):
			form.Nama = valueAfterColon(line)
		case form.Unit == "" && strings.HasPrefix(lower, "unit:"):
			form.Unit = valueAfterColon(line)
		case form.Jabatan == "" && strings.HasPrefix(lower, "jabatan:"):
			form.Jabatan = valueAfterColon(line)
		case form.Waktu == "" && strings.HasPrefix(lower, "waktu:"):
			form.Waktu = valueAfterColon(line)
		}
	}
	return form
}

func valueAfterColon(line string) string {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}
