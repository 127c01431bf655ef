// Package tui implements the Bubble Tea terminal user interface.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/overlay"
	"github.com/sprite-ai/claimassess/internal/upload"
	"github.com/sprite-ai/claimassess/internal/wizard"
)

// Options configure the terminal wizard.
type Options struct {
	Wizard wizard.Options
	Logger *zap.Logger

	// ClaimNumber and Photos pre-fill the wizard. Photos are file paths;
	// when any are given the wizard opens on the photo step.
	ClaimNumber string
	Photos      []string
}

// Model is the top-level Bubble Tea model for the claim wizard.
type Model struct {
	s *session

	// UI state
	width  int
	height int

	claimInput textinput.Model
	pathInput  textinput.Model
	adding     bool // path prompt open on the photo step
	maxBytes   int64

	photoIndex  int
	detailIndex int
	photoPane   bool // review step: photos pane has focus
	form        *detailForm
	formErr     string

	spinner  spinner.Model
	showHelp bool
}

// New creates the wizard model.
func New(opts Options) Model {
	s := newSession(opts.Wizard, opts.Logger)

	claimInput := textinput.New()
	claimInput.Placeholder = "Enter your claim number"
	claimInput.CharLimit = 64
	claimInput.Focus()

	pathInput := textinput.New()
	pathInput.Placeholder = "path/to/photo.jpg"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPurple)

	m := Model{
		s:          s,
		claimInput: claimInput,
		pathInput:  pathInput,
		maxBytes:   opts.Wizard.Limits.MaxBytes,
		spinner:    sp,
	}
	if m.maxBytes == 0 {
		m.maxBytes = upload.MaxSize
	}

	if opts.ClaimNumber != "" {
		m.claimInput.SetValue(opts.ClaimNumber)
		m.syncClaimNumber()
	}
	if len(opts.Photos) > 0 {
		s.wiz.Advance()
		m.resetStep()
		m.addPaths(opts.Photos)
	}
	m.measure()
	return m
}

// Wizard exposes the underlying wizard, mainly for tests.
func (m Model) Wizard() *wizard.Wizard { return m.s.wiz }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	cmds = append(cmds, m.s.sched.drain()...)
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case deferredMsg:
		msg.fn()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)

	default:
		cmds = append(cmds, m.updateInputs(msg))
	}

	m.measure()
	m.clampSelection()
	cmds = append(cmds, m.s.sched.drain()...)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceQuit) {
		return m, tea.Quit
	}
	if m.showHelp {
		if key.Matches(msg, keys.Help, keys.Cancel, keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	switch m.s.wiz.Step() {
	case wizard.StepClaimInfo:
		return m.claimInfoKey(msg)
	case wizard.StepPhotos:
		return m.photosKey(msg)
	default:
		return m.reviewKey(msg)
	}
}

func (m Model) claimInfoKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, keys.Next, keys.Save) {
		return m.advance()
	}

	var cmd tea.Cmd
	m.claimInput, cmd = m.claimInput.Update(msg)
	m.syncClaimNumber()
	return m, cmd
}

func (m Model) photosKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.adding {
		switch {
		case key.Matches(msg, keys.Cancel):
			m.closePathPrompt()
		case key.Matches(msg, keys.Save):
			path := strings.TrimSpace(m.pathInput.Value())
			m.closePathPrompt()
			if path != "" {
				m.addPaths([]string{path})
			}
		default:
			var cmd tea.Cmd
			m.pathInput, cmd = m.pathInput.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	step := m.s.wiz.Photos()
	photos := step.Photos()
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = true
	case key.Matches(msg, keys.Next):
		return m.advance()
	case key.Matches(msg, keys.Back):
		return m.retreat()
	case key.Matches(msg, keys.Up):
		if m.photoIndex > 0 {
			m.photoIndex--
		}
	case key.Matches(msg, keys.Down):
		if m.photoIndex < len(photos)-1 {
			m.photoIndex++
		}
	case key.Matches(msg, keys.Add):
		m.adding = true
		m.pathInput.SetValue("")
		return m, m.pathInput.Focus()
	case key.Matches(msg, keys.Remove):
		if m.photoIndex < len(photos) {
			step.Remove(photos[m.photoIndex].ID)
		}
	case key.Matches(msg, keys.Overlay):
		if m.photoIndex < len(photos) {
			step.ToggleOverlay(photos[m.photoIndex].ID)
		}
	}
	return m, nil
}

func (m Model) reviewKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	review := m.s.wiz.Review()
	if m.form != nil {
		switch {
		case key.Matches(msg, keys.Cancel):
			review.CancelEdit()
			m.form, m.formErr = nil, ""
		case key.Matches(msg, keys.Save):
			m.saveForm(review)
		case msg.Type == tea.KeyTab:
			return m, m.form.move(1)
		case msg.Type == tea.KeyShiftTab:
			return m, m.form.move(-1)
		default:
			return m, m.form.update(msg)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = true
	case key.Matches(msg, keys.Back):
		return m.retreat()
	case key.Matches(msg, keys.Focus):
		m.photoPane = !m.photoPane
	case key.Matches(msg, keys.Up):
		if m.photoPane {
			m.photoIndex = max(m.photoIndex-1, 0)
		} else {
			m.detailIndex = max(m.detailIndex-1, 0)
		}
	case key.Matches(msg, keys.Down):
		if m.photoPane {
			m.photoIndex++
		} else {
			m.detailIndex++
		}
	case key.Matches(msg, keys.Overlay):
		photos := review.Photos()
		if m.photoPane && m.photoIndex < len(photos) {
			review.ToggleOverlay(photos[m.photoIndex].ID)
		}
	case key.Matches(msg, keys.Edit):
		if m.photoPane {
			return m, nil
		}
		if err := review.BeginEdit(m.detailIndex); err != nil {
			return m, nil
		}
		m.form = newDetailForm(review.Scratch())
		m.formErr = ""
		return m, textinput.Blink
	case key.Matches(msg, keys.Submit):
		m.s.wiz.Submit()
	}
	return m, nil
}

func (m *Model) saveForm(review *wizard.ReviewStep) {
	if err := m.form.apply(review); err != nil {
		m.formErr = err.Error()
		return
	}
	if err := review.Save(); err != nil {
		m.formErr = err.Error()
		return
	}
	m.form, m.formErr = nil, ""
}

func (m Model) advance() (Model, tea.Cmd) {
	if !m.s.wiz.Advance() {
		return m, nil
	}
	m.resetStep()
	return m, nil
}

func (m Model) retreat() (Model, tea.Cmd) {
	if !m.s.wiz.Retreat() {
		return m, nil
	}
	m.resetStep()
	if m.s.wiz.Step() == wizard.StepClaimInfo {
		return m, tea.Batch(m.claimInput.Focus(), textinput.Blink)
	}
	return m, nil
}

// resetStep drops UI state tied to the step that was just left.
func (m *Model) resetStep() {
	m.closePathPrompt()
	m.photoIndex, m.detailIndex = 0, 0
	m.photoPane = false
	m.form, m.formErr = nil, ""

	if m.s.wiz.Step() == wizard.StepClaimInfo {
		m.claimInput.SetValue(m.s.wiz.Claim().PolicyNumber)
		m.claimInput.Focus()
	} else {
		m.claimInput.Blur()
	}
}

func (m *Model) closePathPrompt() {
	m.adding = false
	m.pathInput.Blur()
	m.pathInput.SetValue("")
}

func (m *Model) syncClaimNumber() {
	info := m.s.wiz.ClaimInfo()
	if info == nil || info.Fields()[0].Value == m.claimInput.Value() {
		return
	}
	if err := info.Change("policy_number", m.claimInput.Value()); err != nil {
		m.s.logger.Warn("claim number change rejected", zap.Error(err))
	}
}

// addPaths reads photos from disk and hands them to the photo step as one
// batch. Read errors are shown like upload rejections.
func (m *Model) addPaths(paths []string) {
	step := m.s.wiz.Photos()
	if step == nil {
		return
	}
	m.s.notice, m.s.noticeErr = "", false

	var readErr error
	files := make([]upload.File, 0, len(paths))
	for _, path := range paths {
		f, err := upload.FromPath(path, m.maxBytes)
		if err != nil {
			m.s.logger.Warn("reading photo failed", zap.String("path", path), zap.Error(err))
			readErr = err
			continue
		}
		files = append(files, f)
	}
	step.AddFiles(files)
	if readErr != nil && step.UploadError() == "" {
		m.s.notice, m.s.noticeErr = readErr.Error(), true
	}
	m.photoIndex = max(len(step.Photos())-1, 0)
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.form != nil:
		cmd = m.form.update(msg)
	case m.adding:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case m.s.wiz.Step() == wizard.StepClaimInfo:
		m.claimInput, cmd = m.claimInput.Update(msg)
	}
	return cmd
}

// measure records the size of every photo the current step shows.
func (m *Model) measure() {
	switch {
	case m.s.wiz.Photos() != nil:
		step := m.s.wiz.Photos()
		for _, p := range step.Photos() {
			step.Measure(p.ID)
		}
	case m.s.wiz.Review() != nil:
		step := m.s.wiz.Review()
		for _, p := range step.Photos() {
			step.Measure(p.ID)
		}
	}
}

func (m *Model) clampSelection() {
	n := len(m.s.wiz.Claim().Photos)
	m.photoIndex = min(m.photoIndex, max(n-1, 0))
	if res := m.s.wiz.Claim().AIAnalysis; res != nil {
		m.detailIndex = min(m.detailIndex, max(len(res.DamageDetails)-1, 0))
	} else {
		m.detailIndex = 0
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	marks := m.s.wiz.Indicator()
	header := renderRail(marks) + "\n" + renderRailCaptions(marks)

	var page string
	switch m.s.wiz.Step() {
	case wizard.StepClaimInfo:
		page = m.renderClaimInfo()
	case wizard.StepPhotos:
		page = m.renderPhotos()
	default:
		page = m.renderReview()
	}

	body := pageStyle.Width(m.width - 2).Render(page)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusBar())
}

func (m Model) innerWidth() int {
	return max(m.width-6, 20)
}

func (m Model) renderClaimInfo() string {
	info := m.s.wiz.ClaimInfo()
	field := info.Fields()[0]

	var b strings.Builder
	b.WriteString(pageHeaderStyle.Render("Claim Information"))
	b.WriteByte('\n')
	label := field.Label
	if field.Required {
		label += " *"
	}
	b.WriteString(labelStyle.Render(label))
	b.WriteByte('\n')
	b.WriteString(m.claimInput.View())
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render(field.Help))
	if missing := info.Missing(); len(missing) > 0 {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("Required: " + strings.Join(missing, ", ")))
	}
	return b.String()
}

func (m Model) renderPhotos() string {
	step := m.s.wiz.Photos()
	width := m.innerWidth()

	var b strings.Builder
	b.WriteString(pageHeaderStyle.Render("Upload Photos"))
	b.WriteByte('\n')
	b.WriteString(hintStyle.Render("JPEG, PNG or HEIC images up to 10MB. The first photos start the AI damage assessment."))
	b.WriteString("\n\n")
	b.WriteString(renderPhotoList(step.Photos(), step.Measured, m.photoIndex, true, width))
	b.WriteByte('\n')

	if msg := step.UploadError(); msg != "" {
		b.WriteString("\n" + errorStyle.Render(msg) + "\n")
	}
	if m.adding {
		b.WriteString("\n" + labelStyle.Render("Add photo: ") + m.pathInput.View() + "\n")
	}
	if step.Analyzing() {
		b.WriteString("\n" + m.spinner.View() + " Analyzing photos...\n")
	}

	b.WriteString(m.selectedOverlay(step.Photos(), step.Overlay, step.Measured))
	return b.String()
}

func (m Model) renderReview() string {
	review := m.s.wiz.Review()
	width := m.innerWidth()

	var b strings.Builder
	b.WriteString(pageHeaderStyle.Render("AI Damage Assessment"))
	b.WriteByte('\n')

	res := review.Analysis()
	if res == nil {
		b.WriteString(hintStyle.Render("No analysis available. Upload photos of the damage to receive an AI assessment."))
		b.WriteByte('\n')
	} else {
		b.WriteString(renderAnalysisSummary(res))
		b.WriteByte('\n')
		b.WriteString(renderDetailTable(res.DamageDetails, m.detailIndex, !m.photoPane && m.form == nil, width))
	}

	if m.form != nil {
		b.WriteString("\n" + labelStyle.Render(fmt.Sprintf("Editing detail %d", m.detailIndex+1)) + "\n")
		b.WriteString(m.form.view())
		if m.formErr != "" {
			b.WriteString(errorStyle.Render(m.formErr) + "\n")
		}
	}
	if review.Saved() {
		b.WriteString("\n" + successStyle.Render(wizard.SavedMessage) + "\n")
	}

	if photos := review.Photos(); len(photos) > 0 {
		b.WriteString("\n" + labelStyle.Render("Photos") + "\n")
		b.WriteString(renderPhotoList(photos, review.Measured, m.photoIndex, m.photoPane, width))
		b.WriteByte('\n')
		if m.photoPane {
			b.WriteString(m.selectedOverlay(photos, review.Overlay, review.Measured))
		}
	}

	switch {
	case m.s.wiz.Submitting():
		b.WriteString("\n" + m.spinner.View() + " Submitting claim...\n")
	case m.s.wiz.Confirmation() != "":
		b.WriteString("\n" + successStyle.Render(m.s.wiz.Confirmation()) + "\n")
	}
	return b.String()
}

func (m Model) selectedOverlay(photos []model.Photo, boxes func(string) ([]overlay.Box, bool), dims func(string) (upload.Dimensions, bool)) string {
	if m.photoIndex >= len(photos) {
		return ""
	}
	id := photos[m.photoIndex].ID
	bx, ok := boxes(id)
	if !ok {
		return ""
	}
	d, _ := dims(id)
	return "\n" + renderMiniMap(bx, d) + "\n"
}

func (m Model) renderStatusBar() string {
	step := m.s.wiz.Step()
	left := fmt.Sprintf(" Step %d/%d", step, wizard.TotalSteps)
	if claim := m.s.wiz.Claim(); claim.PolicyNumber != "" {
		left += "  Claim " + claim.PolicyNumber
	}

	notice := m.s.notice
	if m.s.noticeErr {
		notice = errorStyle.Render(notice)
	}
	right := notice + "  ? help "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	bar := statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
	return bar + "\n" + helpBarStyle.Render(" "+m.stepHints())
}

func (m Model) stepHints() string {
	switch m.s.wiz.Step() {
	case wizard.StepClaimInfo:
		return "enter next · ctrl+c quit"
	case wizard.StepPhotos:
		if m.adding {
			return "enter add · esc cancel"
		}
		return "a add · x remove · o overlay · C-n next · C-p back · q quit"
	default:
		if m.form != nil {
			return "tab next field · enter save · esc cancel"
		}
		return "e edit · tab photos · o overlay · s submit · C-p back · q quit"
	}
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(pageHeaderStyle.Render("claimassess Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []struct{ key, desc string }{
		{"enter / C-n", "Next step"},
		{"C-p", "Previous step"},
		{"↑/k ↓/j", "Move selection"},
		{"a", "Add a photo by path"},
		{"x", "Remove the selected photo"},
		{"o", "Toggle the damage overlay of the selected photo"},
		{"tab", "Switch between details and photos"},
		{"e", "Edit the selected damage detail"},
		{"s", "Submit the claim"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(14).Render(item.key),
			item.desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// Run starts the TUI application.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
