package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jondiko12/AlarmClock/internal/ui"
)

// formField describes one text input in an inputForm.
type formField struct {
	label       string
	placeholder string
	charLimit   int
}

// inputForm is a column of labeled text inputs with one focused at a time.
type inputForm struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

func newInputForm(fields ...formField) inputForm {
	f := inputForm{
		labels: make([]string, len(fields)),
		inputs: make([]textinput.Model, len(fields)),
	}
	for i, field := range fields {
		in := textinput.New()
		in.Placeholder = field.placeholder
		in.Prompt = ""
		if field.charLimit > 0 {
			in.CharLimit = field.charLimit
		}
		f.labels[i] = field.label
		f.inputs[i] = in
	}
	return f
}

// focusFirst focuses the first input and blurs the rest.
func (f *inputForm) focusFirst() tea.Cmd {
	return f.setFocus(0)
}

func (f *inputForm) setFocus(i int) tea.Cmd {
	f.focus = i
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == i {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

func (f *inputForm) blur() {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
}

func (f *inputForm) next() tea.Cmd {
	return f.setFocus((f.focus + 1) % len(f.inputs))
}

func (f *inputForm) prev() tea.Cmd {
	return f.setFocus((f.focus - 1 + len(f.inputs)) % len(f.inputs))
}

// update feeds msg to the focused input.
func (f *inputForm) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f inputForm) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *inputForm) setValue(i int, v string) {
	f.inputs[i].SetValue(v)
}

func (f *inputForm) reset() {
	for j := range f.inputs {
		f.inputs[j].Reset()
	}
}

func (f inputForm) view(theme ui.Theme) string {
	lines := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		marker := "  "
		if i == f.focus && in.Focused() {
			marker = theme.Selected.Render("> ")
		}
		lines[i] = marker + theme.Label.Render(f.labels[i]) + in.View()
	}
	return strings.Join(lines, "\n")
}
