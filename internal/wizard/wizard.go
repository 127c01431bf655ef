// Package wizard implements the three-step claim wizard: claim details,
// damage photos, and review of the damage assessment.
//
// A Wizard is not safe for concurrent use. Every surface drives it from a
// single event loop (Bubble Tea's Update, or a Loop) and deferred work is
// routed back onto that loop through a Scheduler.
package wizard

import (
	"time"

	"github.com/sprite-ai/claimassess/internal/analysis"
	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/upload"
)

// Step identifies a wizard page.
type Step int

const (
	StepClaimInfo Step = iota + 1
	StepPhotos
	StepReview
)

// TotalSteps is the number of wizard pages.
const TotalSteps = 3

// Default delays for the simulated backends.
const (
	DefaultAnalysisDelay = 2 * time.Second
	DefaultSubmitDelay   = 1500 * time.Millisecond
	DefaultSavedAckDelay = 2 * time.Second
)

// SubmittedMessage is surfaced once a claim submission completes.
const SubmittedMessage = "Claim submitted successfully! Our team will review your claim and contact you shortly."

// Host is the view a step has of the wizard: a read model of the claim and
// the single update entry point.
type Host interface {
	Claim() model.ClaimRecord
	UpdateClaim(model.ClaimPatch)
}

// Options configure a Wizard. Zero values get defaults, except Scheduler,
// which is required.
type Options struct {
	Scheduler     Scheduler
	Analyzer      analysis.Analyzer
	Store         *upload.Store
	Limits        upload.Limits
	AnalysisDelay time.Duration
	SubmitDelay   time.Duration
	SavedAckDelay time.Duration
	OnEvent       func(Event)
}

// Wizard owns the claim record and the current step.
type Wizard struct {
	opts Options

	step         Step
	claim        model.ClaimRecord
	analyzing    bool
	submitting   bool
	confirmation string

	// Only the component for the current step is non-nil.
	info   *ClaimInfoStep
	photos *PhotoStep
	review *ReviewStep
}

// New creates a wizard on the first step with an empty claim.
func New(opts Options) *Wizard {
	if opts.Scheduler == nil {
		panic("wizard: Options.Scheduler is required")
	}
	if opts.Analyzer == nil {
		opts.Analyzer = analysis.NewMock(nil)
	}
	if opts.Store == nil {
		opts.Store = upload.NewStore()
	}
	if opts.Limits.MaxBytes == 0 && len(opts.Limits.AllowedTypes) == 0 {
		opts.Limits = upload.DefaultLimits()
	}
	if opts.AnalysisDelay == 0 {
		opts.AnalysisDelay = DefaultAnalysisDelay
	}
	if opts.SubmitDelay == 0 {
		opts.SubmitDelay = DefaultSubmitDelay
	}
	if opts.SavedAckDelay == 0 {
		opts.SavedAckDelay = DefaultSavedAckDelay
	}

	w := &Wizard{opts: opts, step: StepClaimInfo}
	w.enter(StepClaimInfo)
	return w
}

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Analyzing reports whether an analysis run is pending.
func (w *Wizard) Analyzing() bool { return w.analyzing }

// Submitting reports whether a submission is pending.
func (w *Wizard) Submitting() bool { return w.submitting }

// Confirmation returns the message of the last completed submission.
func (w *Wizard) Confirmation() string { return w.confirmation }

// Store returns the image store photos refer to.
func (w *Wizard) Store() *upload.Store { return w.opts.Store }

// Claim implements Host. The returned record is a copy.
func (w *Wizard) Claim() model.ClaimRecord {
	return w.claim.Clone()
}

// UpdateClaim implements Host.
func (w *Wizard) UpdateClaim(p model.ClaimPatch) {
	if p.IsEmpty() {
		return
	}
	w.claim = p.Apply(w.claim)
	w.emit(EventClaimUpdated, "")
}

// CanAdvance reports whether Advance would move forward.
func (w *Wizard) CanAdvance() bool {
	if w.step >= StepReview {
		return false
	}
	return !(w.step == StepPhotos && w.analyzing)
}

// Advance moves to the next step. It is a no-op on the last step and on
// the photo step while an analysis is running.
func (w *Wizard) Advance() bool {
	if !w.CanAdvance() {
		return false
	}
	w.moveTo(w.step + 1)
	return true
}

// Retreat moves to the previous step. It is a no-op on the first step.
func (w *Wizard) Retreat() bool {
	if w.step <= StepClaimInfo {
		return false
	}
	w.moveTo(w.step - 1)
	return true
}

func (w *Wizard) moveTo(s Step) {
	w.leave()
	w.step = s
	w.enter(s)
	w.emit(EventStepChanged, "")
}

func (w *Wizard) enter(s Step) {
	switch s {
	case StepClaimInfo:
		w.info = &ClaimInfoStep{host: w}
	case StepPhotos:
		w.photos = newPhotoStep(w)
	case StepReview:
		w.review = newReviewStep(w)
	}
}

// leave drops the step-local state of the current step.
func (w *Wizard) leave() {
	if w.review != nil {
		w.review.detach()
	}
	w.info, w.photos, w.review = nil, nil, nil
}

// ClaimInfo returns the claim information form, or nil when another step
// is showing.
func (w *Wizard) ClaimInfo() *ClaimInfoStep { return w.info }

// Photos returns the photo upload step, or nil when another step is showing.
func (w *Wizard) Photos() *PhotoStep { return w.photos }

// Review returns the analysis review step, or nil when another step is
// showing.
func (w *Wizard) Review() *ReviewStep { return w.review }

// RunAnalysis starts a simulated assessment. After the analysis delay the
// result is stored on the claim and its severity mirrored onto the claim,
// whatever step the wizard is on by then.
func (w *Wizard) RunAnalysis() {
	w.analyzing = true
	w.emit(EventAnalysisStarted, "")

	w.opts.Scheduler.After(w.opts.AnalysisDelay, func() {
		res := w.opts.Analyzer.Assess(w.claim.Photos)
		sev := res.DamageSeverity
		w.UpdateClaim(model.ClaimPatch{AIAnalysis: &res, DamageSeverity: &sev})
		w.analyzing = false
		w.emit(EventAnalysisCompleted, analysis.Summary(&res))
	})
}

// Submit sends the claim. It only applies on the review step and while no
// other submission is pending. The simulated backend always succeeds.
func (w *Wizard) Submit() bool {
	if w.step != StepReview || w.submitting {
		return false
	}
	w.submitting = true
	w.emit(EventSubmitStarted, "")

	w.opts.Scheduler.After(w.opts.SubmitDelay, func() {
		w.confirmation = SubmittedMessage
		w.submitting = false
		w.emit(EventSubmitted, SubmittedMessage)
	})
	return true
}

// Indicator returns the progress rail for the current step.
func (w *Wizard) Indicator() []Mark {
	return Indicator(int(w.step), TotalSteps)
}
