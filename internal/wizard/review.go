package wizard

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sprite-ai/claimassess/internal/analysis"
	"github.com/sprite-ai/claimassess/internal/model"
)

// Field names a user-editable property of a damage detail.
type Field string

const (
	FieldLocation      Field = "location"
	FieldDamageType    Field = "damage_type"
	FieldSeverity      Field = "severity"
	FieldEstimatedCost Field = "estimated_cost"
	FieldNotes         Field = "notes"
)

// EditableFields lists the detail fields in form order.
var EditableFields = []Field{FieldLocation, FieldDamageType, FieldSeverity, FieldEstimatedCost, FieldNotes}

var (
	ErrNoAnalysis    = errors.New("no analysis available")
	ErrNotEditing    = errors.New("no detail is being edited")
	ErrDetailIndex   = errors.New("detail index out of range")
	ErrUnknownField  = errors.New("unknown detail field")
	ErrInvalidCost   = errors.New("estimated cost must be a non-negative number")
	ErrInvalidDetail = errors.New("detail severity must be minor, moderate or severe")
)

// SavedMessage is the acknowledgment shown after a detail is saved.
const SavedMessage = "Changes saved successfully"

// ReviewStep is the third page: reviewing and correcting the assessment.
// At most one detail is edited at a time, through a scratch copy.
type ReviewStep struct {
	gallery

	w        *Wizard
	editing  int
	scratch  model.DamageDetail
	saved    bool
	savedSeq int
}

func newReviewStep(w *Wizard) *ReviewStep {
	return &ReviewStep{gallery: newGallery(w, w.opts.Store), w: w, editing: -1}
}

// Available reports whether there is an analysis to review. Without one the
// step shows a prompt to upload photos instead.
func (r *ReviewStep) Available() bool {
	return r.host.Claim().AIAnalysis != nil
}

// Analysis returns a copy of the current assessment, or nil.
func (r *ReviewStep) Analysis() *model.AnalysisResult {
	return r.host.Claim().AIAnalysis
}

// Editing returns the index of the detail in edit mode.
func (r *ReviewStep) Editing() (int, bool) {
	return r.editing, r.editing >= 0
}

// Scratch returns the unsaved values of the detail in edit mode.
func (r *ReviewStep) Scratch() model.DamageDetail {
	return r.scratch
}

// Saved reports whether the saved acknowledgment is showing.
func (r *ReviewStep) Saved() bool { return r.saved }

// BeginEdit puts detail i in edit mode, seeding the scratch copy from it.
// Unsaved values of a previously edited detail are abandoned.
func (r *ReviewStep) BeginEdit(i int) error {
	res := r.Analysis()
	if res == nil {
		return ErrNoAnalysis
	}
	if i < 0 || i >= len(res.DamageDetails) {
		return fmt.Errorf("%w: %d", ErrDetailIndex, i)
	}
	r.editing = i
	r.scratch = res.DamageDetails[i]
	return nil
}

// CancelEdit leaves edit mode without saving.
func (r *ReviewStep) CancelEdit() {
	r.editing = -1
	r.scratch = model.DamageDetail{}
}

// SetField changes one value of the scratch copy. An empty cost counts as
// zero. Invalid values leave the scratch copy unchanged.
func (r *ReviewStep) SetField(f Field, value string) error {
	if r.editing < 0 {
		return ErrNotEditing
	}
	switch f {
	case FieldLocation:
		r.scratch.Location = value
	case FieldDamageType:
		r.scratch.DamageType = value
	case FieldNotes:
		r.scratch.Notes = value
	case FieldSeverity:
		s, err := model.ParseSeverity(value)
		if err != nil || s == model.SeverityUnknown {
			return fmt.Errorf("%w: %q", ErrInvalidDetail, value)
		}
		r.scratch.Severity = s
	case FieldEstimatedCost:
		cost, err := parseCost(value)
		if err != nil {
			return err
		}
		r.scratch.EstimatedCost = cost
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	return nil
}

func parseCost(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, nil
	}
	digits, ok := stripGrouping(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCost, s)
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCost, s)
	}
	return v, nil
}

// stripGrouping removes thousands separators from a number. Commas are
// accepted only between groups of three digits in the integer part.
func stripGrouping(s string) (string, bool) {
	if !strings.Contains(s, ",") {
		return s, true
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if strings.Contains(frac, ",") {
		return "", false
	}
	groups := strings.Split(intPart, ",")
	for i, g := range groups {
		if g == "" || len(g) > 3 || (i > 0 && len(g) != 3) || !allDigits(g) {
			return "", false
		}
	}
	out := strings.Join(groups, "")
	if hasFrac {
		out += "." + frac
	}
	return out, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Save merges the scratch copy into the edited detail, recomputes the
// repair estimate over all details and writes the assessment back to the
// claim. The saved acknowledgment clears itself after the configured delay;
// a later save restarts that delay.
func (r *ReviewStep) Save() error {
	if r.editing < 0 {
		return ErrNotEditing
	}
	res := r.Analysis()
	if res == nil {
		return ErrNoAnalysis
	}
	if r.editing >= len(res.DamageDetails) {
		return fmt.Errorf("%w: %d", ErrDetailIndex, r.editing)
	}

	res.DamageDetails[r.editing] = r.scratch
	analysis.Recompute(res)
	r.host.UpdateClaim(model.ClaimPatch{AIAnalysis: res})

	r.CancelEdit()
	r.saved = true
	r.savedSeq++
	seq := r.savedSeq
	r.w.emit(EventDetailSaved, SavedMessage)

	r.w.opts.Scheduler.After(r.w.opts.SavedAckDelay, func() {
		if r.saved && r.savedSeq == seq {
			r.saved = false
			r.w.emit(EventSavedCleared, "")
		}
	})
	return nil
}

// detach stops pending acknowledgment timers from touching a step that is
// no longer showing.
func (r *ReviewStep) detach() {
	r.saved = false
	r.savedSeq++
}
