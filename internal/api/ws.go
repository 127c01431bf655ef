package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/upload"
	"github.com/sprite-ai/claimassess/internal/wizard"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev; restrict in production
	},
}

// WebSocket message types from client.
const (
	wsMsgUpdateClaim   = "update_claim"
	wsMsgSetField      = "set_field"
	wsMsgAdvance       = "advance"
	wsMsgRetreat       = "retreat"
	wsMsgAddPhotos     = "add_photos"
	wsMsgRemovePhoto   = "remove_photo"
	wsMsgToggleOverlay = "toggle_overlay"
	wsMsgBeginEdit     = "begin_edit"
	wsMsgEditField     = "edit_field"
	wsMsgSaveEdit      = "save_edit"
	wsMsgCancelEdit    = "cancel_edit"
	wsMsgSubmit        = "submit"
)

// WebSocket message types to client.
const (
	wsMsgState = "state"
	wsMsgEvent = "event"
	wsMsgError = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsSetField is the payload for "set_field" messages.
type wsSetField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// wsPhotoFile is one file of an "add_photos" message. Data is base64 in
// JSON.
type wsPhotoFile struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
	Data []byte `json:"data"`
}

type wsAddPhotos struct {
	Files []wsPhotoFile `json:"files"`
}

// wsPhotoRef is the payload for remove_photo/toggle_overlay messages.
type wsPhotoRef struct {
	ID string `json:"id"`
}

type wsBeginEdit struct {
	Index int `json:"index"`
}

type wsEditField struct {
	Field wizard.Field `json:"field"`
	Value string       `json:"value"`
}

type wsError struct {
	Message string `json:"message"`
}

// wsFrameSlack covers the envelope and file metadata around the photo data.
const wsFrameSlack = 64 * 1024

// readLimit bounds one client frame: a single photo at the size limit,
// base64 encoded, plus envelope.
func readLimit(maxBytes int64) int64 {
	return maxBytes*4/3 + wsFrameSlack
}

var (
	errWrongStep = errors.New("not available on this step")
	errManaged   = errors.New("photos and ai_analysis are managed by the wizard")
)

// wizardSession is one WebSocket client's wizard. Everything touching the
// wizard or writing to the connection runs on the session's loop.
type wizardSession struct {
	id     string
	conn   *websocket.Conn
	loop   *wizard.Loop
	wiz    *wizard.Wizard
	logger *zap.Logger
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(readLimit(s.opts.Wizard.Limits.MaxBytes))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := &wizardSession{
		id:   uuid.NewString(),
		conn: conn,
		loop: wizard.NewLoop(),
	}
	sess.logger = s.logger.With(zap.String("session", sess.id))
	go func() { _ = sess.loop.Run(ctx) }()
	defer func() {
		cancel()
		<-sess.loop.Stopped()
		sess.logger.Info("websocket session ended")
	}()

	opts := s.opts.Wizard
	opts.Scheduler = sess.loop
	opts.OnEvent = sess.onEvent
	opts.Store = upload.NewStore()
	if err := sess.loop.Call(ctx, func() {
		sess.wiz = wizard.New(opts)
		sess.sendState()
	}); err != nil {
		return
	}
	sess.logger.Info("websocket session started")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sess.logger.Warn("websocket read", zap.Error(err))
			}
			if errors.Is(err, websocket.ErrReadLimit) {
				sess.logger.Warn("websocket frame over read limit", zap.Int64("limit", readLimit(s.opts.Wizard.Limits.MaxBytes)))
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			msg = wsMessage{}
		}
		if err := sess.loop.Call(ctx, func() { sess.handle(msg) }); err != nil {
			return
		}
	}
}

// handle applies one client message and answers with the new state, or an
// error message when the message could not be applied.
func (ss *wizardSession) handle(msg wsMessage) {
	if msg.Type == "" {
		ss.sendError("invalid message format")
		return
	}
	ss.logger.Debug("websocket message", zap.String("type", msg.Type))

	var err error
	switch msg.Type {
	case wsMsgUpdateClaim:
		err = ss.updateClaim(msg.Data)
	case wsMsgSetField:
		err = ss.setField(msg.Data)
	case wsMsgAdvance:
		if !ss.wiz.Advance() {
			err = errors.New("cannot advance from this step")
		}
	case wsMsgRetreat:
		if !ss.wiz.Retreat() {
			err = errors.New("already on the first step")
		}
	case wsMsgAddPhotos:
		err = ss.addPhotos(msg.Data)
	case wsMsgRemovePhoto, wsMsgToggleOverlay:
		err = ss.photoAction(msg.Type, msg.Data)
	case wsMsgBeginEdit, wsMsgEditField, wsMsgSaveEdit, wsMsgCancelEdit:
		err = ss.review(msg.Type, msg.Data)
	case wsMsgSubmit:
		if !ss.wiz.Submit() {
			err = errors.New("the claim can only be submitted once from the review step")
		}
	default:
		err = errors.New("unknown message type: " + msg.Type)
	}

	if err != nil {
		ss.sendError(err.Error())
		return
	}
	ss.sendState()
}

func (ss *wizardSession) updateClaim(data json.RawMessage) error {
	var p model.ClaimPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid update_claim data: %w", err)
	}
	if p.Photos != nil || p.AIAnalysis != nil {
		return errManaged
	}
	ss.wiz.UpdateClaim(p)
	return nil
}

func (ss *wizardSession) setField(data json.RawMessage) error {
	var req wsSetField
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid set_field data: %w", err)
	}
	if info := ss.wiz.ClaimInfo(); info != nil {
		return info.Change(req.Name, req.Value)
	}
	p, err := model.PatchField(req.Name, req.Value)
	if err != nil {
		return err
	}
	ss.wiz.UpdateClaim(p)
	return nil
}

func (ss *wizardSession) addPhotos(data json.RawMessage) error {
	step := ss.wiz.Photos()
	if step == nil {
		return fmt.Errorf("add_photos: %w", errWrongStep)
	}
	var req wsAddPhotos
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid add_photos data: %w", err)
	}

	files := make([]upload.File, 0, len(req.Files))
	for _, f := range req.Files {
		uf := upload.File{Name: f.Name, Type: f.Type, Size: int64(len(f.Data)), Data: f.Data}
		if uf.Type == "" {
			uf.Type = upload.TypeByName(f.Name)
		}
		if f.Size > uf.Size {
			uf.Size = f.Size
		}
		files = append(files, uf)
	}
	step.AddFiles(files)
	return nil
}

func (ss *wizardSession) photoAction(kind string, data json.RawMessage) error {
	var req wsPhotoRef
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid %s data: %w", kind, err)
	}

	var ok bool
	switch kind {
	case wsMsgRemovePhoto:
		step := ss.wiz.Photos()
		if step == nil {
			return fmt.Errorf("%s: %w", kind, errWrongStep)
		}
		ok = step.Remove(req.ID)
	default:
		switch {
		case ss.wiz.Photos() != nil:
			ok = ss.wiz.Photos().ToggleOverlay(req.ID)
		case ss.wiz.Review() != nil:
			ok = ss.wiz.Review().ToggleOverlay(req.ID)
		default:
			return fmt.Errorf("%s: %w", kind, errWrongStep)
		}
	}
	if !ok {
		return fmt.Errorf("no photo with id %q", req.ID)
	}
	return nil
}

func (ss *wizardSession) review(kind string, data json.RawMessage) error {
	r := ss.wiz.Review()
	if r == nil {
		return fmt.Errorf("%s: %w", kind, errWrongStep)
	}

	switch kind {
	case wsMsgBeginEdit:
		var req wsBeginEdit
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("invalid begin_edit data: %w", err)
		}
		return r.BeginEdit(req.Index)
	case wsMsgEditField:
		var req wsEditField
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("invalid edit_field data: %w", err)
		}
		return r.SetField(req.Field, req.Value)
	case wsMsgSaveEdit:
		return r.Save()
	default:
		r.CancelEdit()
		return nil
	}
}

// onEvent forwards wizard events. Events raised by timers also carry a
// fresh state, since no client message will trigger one.
func (ss *wizardSession) onEvent(e wizard.Event) {
	if e.Type == wizard.EventClaimUpdated {
		return
	}
	ss.send(wsMsgEvent, e)

	switch e.Type {
	case wizard.EventAnalysisCompleted, wizard.EventSubmitted, wizard.EventSavedCleared:
		ss.sendState()
	}
}

func (ss *wizardSession) sendState() {
	ss.send(wsMsgState, ss.wiz.Snapshot())
}

func (ss *wizardSession) sendError(msg string) {
	ss.send(wsMsgError, wsError{Message: msg})
}

func (ss *wizardSession) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		ss.logger.Error("ws marshal", zap.Error(err))
		return
	}
	if err := ss.conn.WriteJSON(wsMessage{Type: msgType, Data: raw}); err != nil {
		ss.logger.Debug("ws write", zap.Error(err))
	}
}
