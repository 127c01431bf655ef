package tui

import (
	"image"
	"image/jpeg"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/claimassess/internal/analysis"
	"github.com/sprite-ai/claimassess/internal/overlay"
	"github.com/sprite-ai/claimassess/internal/upload"
	"github.com/sprite-ai/claimassess/internal/wizard"
)

func testOptions() Options {
	return Options{
		Wizard: wizard.Options{
			Analyzer:      analysis.NewMock(rand.New(rand.NewPCG(7, 7))),
			AnalysisDelay: time.Millisecond,
			SubmitDelay:   time.Millisecond,
			SavedAckDelay: time.Millisecond,
		},
	}
}

func setupModel(t *testing.T) Model {
	t.Helper()
	return sized(New(testOptions()))
}

func sized(m Model) Model {
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return newM.(Model)
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	newM, cmd := m.Update(k)
	return newM.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// settle runs cmd and feeds every deferred wizard message it produces back
// into the model until nothing is left.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case deferredMsg:
			newM, next := m.Update(msg)
			m = newM.(Model)
			queue = append(queue, next)
		}
	}
	return m
}

func writeJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, 640, 480)), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

// addPhoto opens the path prompt, types path and confirms it.
func addPhoto(t *testing.T, m Model, path string) (Model, tea.Cmd) {
	t.Helper()
	m, _ = press(m, runes("a"))
	if !m.adding {
		t.Fatal("expected path prompt to open")
	}
	m, _ = press(m, runes(path))
	return press(m, tea.KeyMsg{Type: tea.KeyEnter})
}

func toReview(t *testing.T) Model {
	t.Helper()
	m := setupModel(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := addPhoto(t, m, writeJPEG(t, t.TempDir(), "front.jpg"))
	m = settle(t, m, cmd)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.Wizard().Step() != wizard.StepReview {
		t.Fatalf("expected review step, got %d", m.Wizard().Step())
	}
	return m
}

func TestModelInit(t *testing.T) {
	m := setupModel(t)

	if m.Wizard().Step() != wizard.StepClaimInfo {
		t.Errorf("expected step 1, got %d", m.Wizard().Step())
	}
	if !m.claimInput.Focused() {
		t.Error("expected claim number input to be focused")
	}
	if m.Init() == nil {
		t.Error("expected init command")
	}
}

func TestTypeClaimNumber(t *testing.T) {
	m := setupModel(t)

	m, _ = press(m, runes("CLM-42q"))
	if got := m.Wizard().Claim().PolicyNumber; got != "CLM-42q" {
		t.Errorf("expected claim number CLM-42q, got %q", got)
	}
	if m.Wizard().Step() != wizard.StepClaimInfo {
		t.Error("typing q must not quit or navigate")
	}
}

func TestNavigation(t *testing.T) {
	m := setupModel(t)
	m, _ = press(m, runes("CLM-1"))

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Wizard().Step() != wizard.StepPhotos {
		t.Fatalf("expected step 2 after enter, got %d", m.Wizard().Step())
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.Wizard().Step() != wizard.StepReview {
		t.Fatalf("expected step 3, got %d", m.Wizard().Step())
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlP})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if m.Wizard().Step() != wizard.StepClaimInfo {
		t.Fatalf("expected step 1, got %d", m.Wizard().Step())
	}
	if m.claimInput.Value() != "CLM-1" {
		t.Errorf("expected claim number to survive navigation, got %q", m.claimInput.Value())
	}
}

func TestAddPhotoRunsAnalysis(t *testing.T) {
	m := setupModel(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := addPhoto(t, m, writeJPEG(t, t.TempDir(), "front.jpg"))
	if !m.Wizard().Analyzing() {
		t.Fatal("expected analysis to start")
	}
	if !strings.Contains(m.View(), "Analyzing photos") {
		t.Error("expected analyzing indicator in view")
	}

	m = settle(t, m, cmd)
	if m.Wizard().Analyzing() {
		t.Fatal("expected analysis to finish")
	}
	res := m.Wizard().Claim().AIAnalysis
	if res == nil || len(res.DamageDetails) != 4 || res.RepairEstimate != 2000 {
		t.Fatalf("unexpected analysis: %+v", res)
	}

	photos := m.Wizard().Claim().Photos
	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}
	if _, ok := m.Wizard().Photos().Measured(photos[0].ID); !ok {
		t.Error("expected the displayed photo to be measured")
	}
	if !strings.Contains(m.View(), "640x480") {
		t.Error("expected photo dimensions in view")
	}
}

func TestNextBlockedWhileAnalyzing(t *testing.T) {
	m := setupModel(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := addPhoto(t, m, writeJPEG(t, t.TempDir(), "front.jpg"))

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.Wizard().Step() != wizard.StepPhotos {
		t.Fatalf("expected to stay on step 2 while analyzing, got %d", m.Wizard().Step())
	}

	m = settle(t, m, cmd)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.Wizard().Step() != wizard.StepReview {
		t.Fatalf("expected step 3 after analysis, got %d", m.Wizard().Step())
	}
}

func TestRejectedPhoto(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.gif")
	if err := os.WriteFile(path, []byte("GIF89a"), 0o600); err != nil {
		t.Fatal(err)
	}

	m := setupModel(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = addPhoto(t, m, path)

	if n := len(m.Wizard().Claim().Photos); n != 0 {
		t.Errorf("expected no photos, got %d", n)
	}
	if !strings.Contains(m.View(), upload.MsgUnsupportedType) {
		t.Error("expected rejection message in view")
	}
	if m.Wizard().Analyzing() {
		t.Error("rejected files must not start an analysis")
	}
}

func TestMissingFileShowsError(t *testing.T) {
	m := setupModel(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = addPhoto(t, m, filepath.Join(t.TempDir(), "nope.jpg"))

	if !m.s.noticeErr || !strings.Contains(m.s.notice, "nope.jpg") {
		t.Errorf("expected read error notice, got %q", m.s.notice)
	}
}

func TestRemoveAndToggle(t *testing.T) {
	dir := t.TempDir()
	m := setupModel(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := addPhoto(t, m, writeJPEG(t, dir, "a.jpg"))
	m = settle(t, m, cmd)
	m, _ = addPhoto(t, m, writeJPEG(t, dir, "b.jpg"))

	if m.photoIndex != 1 {
		t.Fatalf("expected the new photo selected, got %d", m.photoIndex)
	}

	m, _ = press(m, runes("o"))
	photos := m.Wizard().Claim().Photos
	if !photos[0].ShowOverlay || photos[1].ShowOverlay {
		t.Errorf("expected only the selected overlay toggled: %+v", photos)
	}

	m, _ = press(m, runes("k"))
	m, _ = press(m, runes("x"))
	photos = m.Wizard().Claim().Photos
	if len(photos) != 1 || photos[0].Name != "b.jpg" {
		t.Errorf("expected only b.jpg left, got %+v", photos)
	}
}

func TestEditDetail(t *testing.T) {
	m := toReview(t)

	m, _ = press(m, runes("e"))
	if m.form == nil {
		t.Fatal("expected edit form")
	}
	m.form.inputs[3].SetValue("1000")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.form != nil {
		t.Fatalf("expected form closed, error %q", m.formErr)
	}
	res := m.Wizard().Claim().AIAnalysis
	if res.DamageDetails[0].EstimatedCost != 1000 || res.RepairEstimate != 2200 {
		t.Errorf("unexpected costs after save: %+v", res)
	}
	view := m.View()
	if !strings.Contains(view, wizard.SavedMessage) {
		t.Error("expected saved acknowledgment")
	}
	if !strings.Contains(view, "$2,200") {
		t.Error("expected recomputed estimate in view")
	}

	m = settle(t, m, cmd)
	if m.Wizard().Review().Saved() {
		t.Error("expected acknowledgment to clear")
	}
}

func TestEditInvalidSeverity(t *testing.T) {
	m := toReview(t)

	m, _ = press(m, runes("j"))
	m, _ = press(m, runes("e"))
	m.form.inputs[2].SetValue("catastrophic")
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.form == nil {
		t.Fatal("expected form to stay open")
	}
	if m.form.focus != 2 {
		t.Errorf("expected focus on severity, got %d", m.form.focus)
	}
	if !strings.Contains(m.View(), "must be minor, moderate or severe") {
		t.Error("expected validation error in view")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.form != nil {
		t.Error("expected esc to cancel the edit")
	}
	if m.Wizard().Claim().AIAnalysis.RepairEstimate != 2000 {
		t.Error("cancelled edit must not change the estimate")
	}
}

func TestSubmit(t *testing.T) {
	m := toReview(t)

	m, cmd := press(m, runes("s"))
	if !m.Wizard().Submitting() {
		t.Fatal("expected submission to start")
	}
	if !strings.Contains(m.View(), "Submitting claim") {
		t.Error("expected submitting indicator")
	}

	m = settle(t, m, cmd)
	if !strings.Contains(m.View(), "Claim submitted successfully") {
		t.Error("expected confirmation in view")
	}
}

func TestReviewWithoutAnalysis(t *testing.T) {
	m := setupModel(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlN})

	if !strings.Contains(m.View(), "No analysis available") {
		t.Error("expected placeholder without analysis")
	}
	m, _ = press(m, runes("e"))
	if m.form != nil {
		t.Error("expected no edit form without analysis")
	}
}

func TestPrefilledOptions(t *testing.T) {
	opts := testOptions()
	opts.ClaimNumber = "CLM-9"
	opts.Photos = []string{writeJPEG(t, t.TempDir(), "front.jpg")}

	// Bubble Tea runs Init before the first WindowSizeMsg.
	m := New(opts)
	m = sized(settle(t, m, m.Init()))
	if m.Wizard().Step() != wizard.StepPhotos {
		t.Fatalf("expected to open on step 2, got %d", m.Wizard().Step())
	}
	if m.Wizard().Claim().PolicyNumber != "CLM-9" {
		t.Error("expected claim number to be set")
	}
	if m.Wizard().Claim().AIAnalysis == nil {
		t.Error("expected analysis to complete")
	}
}

func TestPrefilledPhotosAreOneBatch(t *testing.T) {
	dir := t.TempDir()
	gif := filepath.Join(dir, "scan.gif")
	if err := os.WriteFile(gif, []byte("GIF89a"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := testOptions()
	opts.Photos = []string{gif, writeJPEG(t, dir, "front.jpg")}
	m := New(opts)

	step := m.Wizard().Photos()
	if n := len(step.Photos()); n != 1 {
		t.Fatalf("expected 1 accepted photo, got %d", n)
	}
	if step.UploadError() != upload.MsgUnsupportedType {
		t.Errorf("expected the rejection to survive the batch, got %q", step.UploadError())
	}
	if m.s.notice != upload.MsgUnsupportedType || !m.s.noticeErr {
		t.Errorf("expected the rejection as notice, got %q", m.s.notice)
	}
	if !m.Wizard().Analyzing() {
		t.Error("expected the accepted photo to start the analysis")
	}

	m = sized(settle(t, m, m.Init()))
	if !strings.Contains(m.View(), upload.MsgUnsupportedType) {
		t.Error("expected the rejection in the photo step view")
	}
}

func TestViewRenders(t *testing.T) {
	m := setupModel(t)

	view := m.View()
	for _, want := range []string{"Claim Information", "Upload Photos", "AI Analysis", "Claim Number", "Step 1/3"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestHelpToggle(t *testing.T) {
	m := setupModel(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = press(m, runes("?"))
	if !m.showHelp {
		t.Error("expected help to be shown")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("expected help view to contain shortcuts")
	}

	m, _ = press(m, runes("?"))
	if m.showHelp {
		t.Error("expected help to close")
	}
}

func TestRenderMiniMap(t *testing.T) {
	m := toReview(t)
	details := m.Wizard().Claim().AIAnalysis.DamageDetails

	out := renderMiniMap(overlay.Layout(details, 640, 480), upload.Dimensions{Width: 640, Height: 480})
	for _, want := range []string{"1", "2", "3", "4", "Front Bumper", "Front Grille"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected mini-map to contain %q", want)
		}
	}

	if renderMiniMap(nil, upload.Dimensions{}) != "" {
		t.Error("expected empty map without dimensions")
	}
}

func TestRenderRail(t *testing.T) {
	out := renderRail(wizard.Indicator(2, 3))
	if !strings.Contains(out, "✓") {
		t.Error("expected completed mark")
	}
	if !strings.Contains(out, "(2) Upload Photos") {
		t.Error("expected current step number")
	}
}
