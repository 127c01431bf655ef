package wizard

import "fmt"

// MarkState is how a step appears on the progress rail.
type MarkState int

const (
	MarkUpcoming MarkState = iota
	MarkCurrent
	MarkCompleted
)

func (s MarkState) String() string {
	switch s {
	case MarkCurrent:
		return "current"
	case MarkCompleted:
		return "completed"
	default:
		return "upcoming"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s MarkState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *MarkState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "upcoming":
		*s = MarkUpcoming
	case "current":
		*s = MarkCurrent
	case "completed":
		*s = MarkCompleted
	default:
		return fmt.Errorf("invalid mark state %q", b)
	}
	return nil
}

// Mark is one step on the progress rail. Connector is set on every mark
// except the last and is filled once the mark is completed.
type Mark struct {
	Number          int       `json:"number"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	State           MarkState `json:"state"`
	Connector       bool      `json:"connector"`
	ConnectorFilled bool      `json:"connector_filled"`
}

var stepInfo = []struct{ name, desc string }{
	{"Claim Information", "Provide basic details"},
	{"Upload Photos", "Document the damage"},
	{"AI Analysis", "Review assessment"},
}

// Indicator maps the current step to the marks of the progress rail.
func Indicator(current, total int) []Mark {
	n := min(total, len(stepInfo))
	marks := make([]Mark, 0, n)
	for i := range n {
		num := i + 1
		m := Mark{
			Number:      num,
			Name:        stepInfo[i].name,
			Description: stepInfo[i].desc,
			Connector:   num < total,
		}
		switch {
		case num < current:
			m.State = MarkCompleted
		case num == current:
			m.State = MarkCurrent
		}
		m.ConnectorFilled = m.Connector && num < current
		marks = append(marks, m)
	}
	return marks
}
