package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rewired-gh/tickerdesk/internal/views"
)

const (
	fieldSource = iota
	fieldDate
	fieldURL
	fieldQuality
	fieldText
	fieldCount
)

var fieldLabels = [fieldCount]string{"Source", "Date", "URL", "Quality", "Transcript"}

// transcriptForm collects the importer fields. The transcript body is a
// textarea; everything else is a single-line input.
type transcriptForm struct {
	inputs [fieldText]textinput.Model
	text   textarea.Model
	focus  int
}

func newTranscriptForm() transcriptForm {
	var f transcriptForm
	placeholders := [fieldText]string{"Manual import", "YYYY-MM-DD (today)", "https://...", "HIGH / MEDIUM / LOW"}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 200
		f.inputs[i] = in
	}
	f.inputs[fieldDate].CharLimit = 10
	f.inputs[fieldQuality].CharLimit = 6

	f.text = textarea.New()
	f.text.Placeholder = "Paste transcript text or HTML"
	f.text.ShowLineNumbers = false
	f.text.CharLimit = 0
	f.text.SetHeight(8)
	return f
}

func (f *transcriptForm) setWidth(width int) {
	w := width - 14
	if w < 20 {
		w = 20
	}
	for i := range f.inputs {
		f.inputs[i].Width = w
	}
	f.text.SetWidth(w)
}

// focusField moves focus to field i, wrapping in both directions.
func (f *transcriptForm) focusField(i int) tea.Cmd {
	f.blur()
	f.focus = ((i % fieldCount) + fieldCount) % fieldCount
	if f.focus == fieldText {
		return f.text.Focus()
	}
	return f.inputs[f.focus].Focus()
}

func (f *transcriptForm) blur() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.text.Blur()
}

func (f *transcriptForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == fieldText {
		f.text, cmd = f.text.Update(msg)
		return cmd
	}
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *transcriptForm) values() views.TranscriptForm {
	return views.TranscriptForm{
		SourceName: f.inputs[fieldSource].Value(),
		Date:       f.inputs[fieldDate].Value(),
		URL:        f.inputs[fieldURL].Value(),
		Quality:    f.inputs[fieldQuality].Value(),
		Text:       f.text.Value(),
	}
}

func (f *transcriptForm) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.text.Reset()
}

func (f *transcriptForm) view(editing bool) string {
	var b strings.Builder
	for i := range f.inputs {
		b.WriteString(f.label(i, editing) + f.inputs[i].View() + "\n")
	}
	text := f.text.Value()
	if norm, err := views.NormalizeTranscript(text); err == nil {
		text = norm
	}
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	counter := fmt.Sprintf("%d/%d", n, views.MinTranscriptLength)
	if n < views.MinTranscriptLength {
		counter = warnStyle.Render(counter)
	} else {
		counter = okStyle.Render(counter)
	}
	b.WriteString(f.label(fieldText, editing) + counter + "\n")
	b.WriteString(f.text.View())
	return b.String()
}

func (f *transcriptForm) label(i int, editing bool) string {
	text := fmt.Sprintf("%-11s", fieldLabels[i])
	if editing && f.focus == i {
		return activeTabStyle.Render(text) + " "
	}
	return dimStyle.Render(text) + " "
}
