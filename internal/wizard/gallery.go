package wizard

import (
	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/overlay"
	"github.com/sprite-ai/claimassess/internal/upload"
)

// gallery is the photo grid shared by the upload and review steps. It keeps
// the measured size of each photo it has displayed.
type gallery struct {
	host  Host
	store *upload.Store
	dims  map[string]upload.Dimensions
}

func newGallery(host Host, store *upload.Store) gallery {
	return gallery{host: host, store: store, dims: make(map[string]upload.Dimensions)}
}

// Photos returns the claim's photos in upload order.
func (g *gallery) Photos() []model.Photo {
	return g.host.Claim().Photos
}

// Measure records the natural size of a photo, as an image load would.
func (g *gallery) Measure(id string) (upload.Dimensions, bool) {
	if d, ok := g.dims[id]; ok {
		return d, true
	}
	p, ok := g.host.Claim().Photo(id)
	if !ok {
		return upload.Dimensions{}, false
	}
	d, ok := g.store.Measure(p.Ref)
	if !ok {
		return upload.Dimensions{}, false
	}
	g.dims[id] = d
	return d, true
}

// Measured returns the size recorded for a photo, if any.
func (g *gallery) Measured(id string) (upload.Dimensions, bool) {
	d, ok := g.dims[id]
	return d, ok
}

// Overlay returns the damage boxes to draw over a photo. It reports false
// unless an analysis exists, the photo's overlay is on, and its size has
// been measured.
func (g *gallery) Overlay(id string) ([]overlay.Box, bool) {
	claim := g.host.Claim()
	p, ok := claim.Photo(id)
	if !ok {
		return nil, false
	}
	d, measured := g.dims[id]
	if !overlay.Visible(claim.AIAnalysis != nil, p.ShowOverlay, measured) {
		return nil, false
	}
	return overlay.Layout(claim.AIAnalysis.DamageDetails, d.Width, d.Height), true
}

// ToggleOverlay flips the overlay flag of a single photo.
func (g *gallery) ToggleOverlay(id string) bool {
	photos := g.host.Claim().Photos
	found := false
	for i := range photos {
		if photos[i].ID == id {
			photos[i].ShowOverlay = !photos[i].ShowOverlay
			found = true
		}
	}
	if found {
		g.host.UpdateClaim(model.PatchPhotos(photos))
	}
	return found
}
