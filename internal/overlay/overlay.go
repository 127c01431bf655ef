// Package overlay places damage markers over a photo.
package overlay

import "github.com/sprite-ai/claimassess/internal/model"

// Marker geometry, in image pixels.
const (
	Margin      = 50
	BoxWidth    = 100
	BoxHeight   = 60
	LabelOffset = 5
	LabelHeight = 40
)

// Box is one damage marker and its caption.
type Box struct {
	Index      int            `json:"index"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	LabelY     float64        `json:"label_y"`
	Location   string         `json:"location"`
	DamageType string         `json:"damage_type"`
	Severity   model.Severity `json:"severity"`
	Fill       string         `json:"fill"`
	Stroke     string         `json:"stroke"`
}

// Layout places one box per detail in a two-column grid, three rows per
// image height. Placement depends only on the detail index.
func Layout(details []model.DamageDetail, width, height int) []Box {
	boxes := make([]Box, 0, len(details))
	w, h := float64(width), float64(height)
	for i, d := range details {
		x := float64(i%2)*(w/2) + Margin
		y := float64(i/2)*(h/3) + Margin
		boxes = append(boxes, Box{
			Index:      i,
			X:          x,
			Y:          y,
			Width:      BoxWidth,
			Height:     BoxHeight,
			LabelY:     y + BoxHeight + LabelOffset,
			Location:   d.Location,
			DamageType: d.DamageType,
			Severity:   d.Severity,
			Fill:       FillColor(d.Severity),
			Stroke:     StrokeColor(d.Severity),
		})
	}
	return boxes
}

// Visible is the gate for drawing an overlay on a photo: there must be an
// analysis, the photo's toggle must be on, and the image must be measured.
func Visible(hasAnalysis, showOverlay, measured bool) bool {
	return hasAnalysis && showOverlay && measured
}

// FillColor is the translucent box fill for a severity.
func FillColor(s model.Severity) string {
	switch s {
	case model.SeverityMinor:
		return "rgba(34, 197, 94, 0.5)"
	case model.SeverityModerate:
		return "rgba(234, 179, 8, 0.5)"
	case model.SeveritySevere:
		return "rgba(239, 68, 68, 0.5)"
	default:
		return "rgba(107, 114, 128, 0.5)"
	}
}

// StrokeColor is the box outline for a severity.
func StrokeColor(s model.Severity) string {
	switch s {
	case model.SeverityMinor:
		return "#16a34a"
	case model.SeverityModerate:
		return "#ca8a04"
	case model.SeveritySevere:
		return "#dc2626"
	default:
		return "#4b5563"
	}
}
