package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sprite-ai/claimassess/internal/wizard"
)

// deferredMsg carries wizard work scheduled for later back into Update.
type deferredMsg struct {
	fn func()
}

// tickScheduler implements wizard.Scheduler on top of tea.Tick. Work
// scheduled during an Update is collected and handed to the runtime as
// commands when that Update returns.
type tickScheduler struct {
	pending []tea.Cmd
}

func (s *tickScheduler) After(d time.Duration, fn func()) {
	s.pending = append(s.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return deferredMsg{fn: fn}
	}))
}

func (s *tickScheduler) drain() []tea.Cmd {
	cmds := s.pending
	s.pending = nil
	return cmds
}

// session is the state shared by every copy of the Model.
type session struct {
	wiz    *wizard.Wizard
	sched  *tickScheduler
	logger *zap.Logger

	notice    string // last user-facing event message
	noticeErr bool
}

func newSession(opts wizard.Options, logger *zap.Logger) *session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &session{sched: &tickScheduler{}, logger: logger}
	opts.Scheduler = s.sched
	opts.OnEvent = s.observe
	s.wiz = wizard.New(opts)
	return s
}

func (s *session) observe(e wizard.Event) {
	switch e.Type {
	case wizard.EventClaimUpdated, wizard.EventSavedCleared:
		s.logger.Debug("wizard event", zap.Stringer("type", e.Type))
		return
	case wizard.EventStepChanged:
		s.notice, s.noticeErr = "", false
	case wizard.EventUploadRejected:
		s.notice, s.noticeErr = e.Message, true
	case wizard.EventAnalysisStarted:
		// A rejection from the same batch stays visible.
		if !s.noticeErr {
			s.notice = "Analyzing photos..."
		}
	default:
		if e.Message != "" {
			s.notice, s.noticeErr = e.Message, false
		}
	}
	s.logger.Info("wizard event",
		zap.Stringer("type", e.Type),
		zap.String("message", e.Message),
		zap.Int("step", int(s.wiz.Step())))
}
