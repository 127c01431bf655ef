package wizard

import (
	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/overlay"
	"github.com/sprite-ai/claimassess/internal/upload"
)

// PhotoView is a photo as a step displays it.
type PhotoView struct {
	model.Photo
	Dimensions *upload.Dimensions `json:"dimensions,omitempty"`
	Overlay    []overlay.Box      `json:"overlay,omitempty"`
}

// Snapshot is a serializable view of everything a surface renders.
type Snapshot struct {
	Step          Step                `json:"step"`
	TotalSteps    int                 `json:"total_steps"`
	Indicator     []Mark              `json:"indicator"`
	CanAdvance    bool                `json:"can_advance"`
	Analyzing     bool                `json:"analyzing"`
	Submitting    bool                `json:"submitting"`
	Confirmation  string              `json:"confirmation,omitempty"`
	Claim         model.ClaimRecord   `json:"claim"`
	Fields        []FormField         `json:"fields,omitempty"`
	MissingFields []string            `json:"missing_fields,omitempty"`
	UploadError   string              `json:"upload_error,omitempty"`
	Photos        []PhotoView         `json:"photos,omitempty"`
	Editing       *int                `json:"editing,omitempty"`
	Scratch       *model.DamageDetail `json:"scratch,omitempty"`
	Saved         bool                `json:"saved,omitempty"`
}

// Snapshot renders the wizard state. Showing the photo or review step
// measures its photos, which is when their overlays become available.
func (w *Wizard) Snapshot() Snapshot {
	s := Snapshot{
		Step:         w.step,
		TotalSteps:   TotalSteps,
		Indicator:    w.Indicator(),
		CanAdvance:   w.CanAdvance(),
		Analyzing:    w.analyzing,
		Submitting:   w.submitting,
		Confirmation: w.confirmation,
		Claim:        w.Claim(),
	}

	switch {
	case w.info != nil:
		s.Fields = w.info.Fields()
		s.MissingFields = w.info.Missing()
	case w.photos != nil:
		s.UploadError = w.photos.UploadError()
		s.Photos = viewPhotos(&w.photos.gallery)
	case w.review != nil:
		s.Photos = viewPhotos(&w.review.gallery)
		if i, ok := w.review.Editing(); ok {
			scratch := w.review.Scratch()
			s.Editing = &i
			s.Scratch = &scratch
		}
		s.Saved = w.review.Saved()
	}
	return s
}

func viewPhotos(g *gallery) []PhotoView {
	photos := g.Photos()
	views := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		v := PhotoView{Photo: p}
		if d, ok := g.Measure(p.ID); ok {
			v.Dimensions = &d
		}
		if boxes, ok := g.Overlay(p.ID); ok {
			v.Overlay = boxes
		}
		views = append(views, v)
	}
	return views
}
