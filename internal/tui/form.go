package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/wizard"
)

var fieldLabels = map[wizard.Field]string{
	wizard.FieldLocation:      "Location",
	wizard.FieldDamageType:    "Damage Type",
	wizard.FieldSeverity:      "Severity",
	wizard.FieldEstimatedCost: "Estimated Cost",
	wizard.FieldNotes:         "Notes",
}

// detailForm edits one damage detail, one text input per editable field.
type detailForm struct {
	inputs []textinput.Model
	focus  int
}

func newDetailForm(d model.DamageDetail) *detailForm {
	values := map[wizard.Field]string{
		wizard.FieldLocation:      d.Location,
		wizard.FieldDamageType:    d.DamageType,
		wizard.FieldSeverity:      d.Severity.String(),
		wizard.FieldEstimatedCost: strconv.FormatFloat(d.EstimatedCost, 'f', -1, 64),
		wizard.FieldNotes:         d.Notes,
	}

	f := &detailForm{}
	for _, field := range wizard.EditableFields {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		in.SetValue(values[field])
		switch field {
		case wizard.FieldSeverity:
			in.Placeholder = "minor, moderate or severe"
		case wizard.FieldEstimatedCost:
			in.Placeholder = "0"
		}
		f.inputs = append(f.inputs, in)
	}
	f.inputs[0].Focus()
	return f
}

// move shifts focus by delta, wrapping around.
func (f *detailForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	n := len(f.inputs)
	f.focus = ((f.focus+delta)%n + n) % n
	f.inputs[f.focus].Focus()
	return textinput.Blink
}

func (f *detailForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// apply copies every input onto the review's scratch copy. The first
// invalid value stops the copy and moves focus to its input.
func (f *detailForm) apply(r *wizard.ReviewStep) error {
	for i, field := range wizard.EditableFields {
		if err := r.SetField(field, strings.TrimSpace(f.inputs[i].Value())); err != nil {
			f.move(i - f.focus)
			return err
		}
	}
	return nil
}

func (f *detailForm) view() string {
	var b strings.Builder
	for i, field := range wizard.EditableFields {
		label := labelStyle.Width(16).Render(fieldLabels[field])
		if i == f.focus {
			label = helpKeyStyle.Width(16).Render(fieldLabels[field])
		}
		b.WriteString(label)
		b.WriteString(f.inputs[i].View())
		b.WriteByte('\n')
	}
	return b.String()
}
