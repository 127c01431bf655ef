package wizard

import (
	"github.com/google/uuid"

	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/upload"
)

// PhotoStep is the second page: uploading damage photos.
type PhotoStep struct {
	gallery

	w         *Wizard
	uploadErr string
}

func newPhotoStep(w *Wizard) *PhotoStep {
	return &PhotoStep{gallery: newGallery(w, w.opts.Store), w: w}
}

// Analyzing reports whether the assessment of the photos is still running.
func (s *PhotoStep) Analyzing() bool { return s.w.Analyzing() }

// UploadError returns the message of the last rejected file, if any.
func (s *PhotoStep) UploadError() string { return s.uploadErr }

// AddFiles validates a batch of files and appends the accepted ones to the
// claim. The error message is reset per batch; the last rejection wins. The
// first photos ever added start the assessment.
func (s *PhotoStep) AddFiles(files []upload.File) []model.Photo {
	s.uploadErr = ""
	if len(files) == 0 {
		return nil
	}

	claim := s.host.Claim()
	var added []model.Photo
	for _, f := range files {
		if err := s.w.opts.Limits.Validate(f); err != nil {
			s.uploadErr = upload.Message(err)
			s.w.emit(EventUploadRejected, s.uploadErr)
			continue
		}
		added = append(added, model.Photo{
			ID:          "photo-" + uuid.NewString(),
			Ref:         s.store.Put(f.Data),
			Name:        f.Name,
			ShowOverlay: true,
		})
	}
	if len(added) == 0 {
		return nil
	}

	s.host.UpdateClaim(model.PatchPhotos(append(claim.Photos, added...)))
	s.w.emit(EventPhotosAdded, "")

	if len(claim.Photos) == 0 {
		s.w.RunAnalysis()
	}
	return added
}

// Remove deletes exactly the photo with the given ID and releases its bytes.
func (s *PhotoStep) Remove(id string) bool {
	photos := s.host.Claim().Photos
	kept := photos[:0]
	var removed *model.Photo
	for _, p := range photos {
		if p.ID == id {
			removed = &p
			continue
		}
		kept = append(kept, p)
	}
	if removed == nil {
		return false
	}

	s.host.UpdateClaim(model.PatchPhotos(kept))
	s.store.Release(removed.Ref)
	delete(s.dims, id)
	s.w.emit(EventPhotoRemoved, removed.Name)
	return true
}
