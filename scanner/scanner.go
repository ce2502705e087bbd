// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-validate/ids"
	"github.com/danielhkuo/quickly-validate/models"
)

// DefaultSuccessDisplay is how long the success indicator stays visible.
const DefaultSuccessDisplay = 3 * time.Second

// ErrCloseFirst is returned by Open while the scanner is in the error state.
var ErrCloseFirst = errors.New("scanner: close before retrying")

type State int

const (
	Idle State = iota
	Scanning
	Closed
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Closed:
		return "closed"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Camera delivers decoded payloads between Start and Stop. Start must not
// block for the lifetime of the capture; onDecode may be called from any goroutine.
type Camera interface {
	Start(ctx context.Context, onDecode func(payload string)) error
	Stop() error
}

// API is the subset of the validation client the scanner calls.
type API interface {
	Submit(ctx context.Context, code, deviceID, submissionID string) (models.SubmitValidationResponse, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) (int64, error)
}

// CameraError wraps a failure to acquire the camera.
type CameraError struct {
	Err error
}

func (e *CameraError) Error() string {
	return "camera unavailable: " + e.Err.Error()
}

func (e *CameraError) Unwrap() error { return e.Err }

type Config struct {
	// ExpectedCode is the only payload that triggers a submission.
	ExpectedCode string
	DeviceID     string

	// SuccessDisplay defaults to DefaultSuccessDisplay.
	SuccessDisplay time.Duration

	// OnChange, when set, receives a snapshot after every visible change.
	// It is called without the scanner lock held.
	OnChange func(View)
}

// View is what the UI renders.
type View struct {
	State       State
	Count       int64
	ShowSuccess bool
	Duplicate   bool
	Error       string
	InFlight    bool
}

type Scanner struct {
	cam Camera
	api API
	cfg Config

	mu          sync.Mutex
	state       State
	count       int64
	showSuccess bool
	duplicate   bool
	errMsg      string
	inFlight    bool
	lastCode    string
	session     uint64
	camHeld     bool
	ctx         context.Context
	hideTimer   *time.Timer

	wg sync.WaitGroup
}

func New(cam Camera, api API, cfg Config) *Scanner {
	if cfg.SuccessDisplay <= 0 {
		cfg.SuccessDisplay = DefaultSuccessDisplay
	}
	return &Scanner{cam: cam, api: api, cfg: cfg, state: Idle, ctx: context.Background()}
}

// Open starts a scanning session. Both session guards are reset.
func (s *Scanner) Open(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Error:
		s.mu.Unlock()
		return ErrCloseFirst
	case Scanning:
		s.mu.Unlock()
		return nil
	}
	s.session++
	session := s.session
	s.state = Scanning
	s.inFlight = false
	s.lastCode = ""
	s.errMsg = ""
	s.ctx = context.WithoutCancel(ctx)
	s.mu.Unlock()
	s.notify()

	if err := s.cam.Start(ctx, s.HandleDecode); err != nil {
		camErr := &CameraError{Err: err}
		s.mu.Lock()
		if s.session == session {
			s.state = Error
			s.errMsg = camErr.Error()
		}
		s.mu.Unlock()
		slog.Error("camera acquisition failed", "error", err)
		s.notify()
		return camErr
	}

	s.mu.Lock()
	if s.session == session && s.state == Scanning {
		s.camHeld = true
		s.mu.Unlock()
		slog.Debug("scanning session started", "session", session)
		return nil
	}
	s.mu.Unlock()

	// closed while the camera was starting
	if err := s.cam.Stop(); err != nil {
		slog.Warn("failed to release camera", "error", err)
	}
	return nil
}

// HandleDecode processes one decoded frame. It never blocks on the network.
func (s *Scanner) HandleDecode(payload string) {
	if payload != s.cfg.ExpectedCode {
		slog.Debug("ignoring unexpected code", "payload", payload)
		return
	}

	s.mu.Lock()
	if s.state != Scanning || s.inFlight || s.lastCode == payload {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.lastCode = payload
	session := s.session
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()
	s.notify()

	go s.submit(ctx, session, payload, ids.NewSubmissionToken())
}

func (s *Scanner) submit(ctx context.Context, session uint64, code, token string) {
	defer s.wg.Done()

	resp, err := s.api.Submit(ctx, code, s.cfg.DeviceID, token)

	s.mu.Lock()
	current := s.session == session
	if current {
		s.inFlight = false
	}
	if err != nil {
		// the last-processed marker stays set; the user closes and rescans
		if current && s.state == Scanning {
			s.errMsg = fmt.Sprintf("failed to submit validation: %v", err)
		}
		s.mu.Unlock()
		slog.Error("submission failed", "error", err, "submission_id", token)
		s.notify()
		return
	}
	s.mu.Unlock()

	slog.Info("validation submitted", "duplicate", resp.Duplicate, "submission_id", token)

	count, cerr := s.api.Count(ctx)
	if cerr != nil {
		slog.Warn("failed to reload count", "error", cerr)
	}

	s.mu.Lock()
	if cerr == nil {
		s.count = count
	}
	// a newer session owns the view
	if s.session != session {
		s.mu.Unlock()
		s.notify()
		return
	}
	s.showSuccess = true
	s.duplicate = resp.Duplicate
	if s.hideTimer != nil {
		s.hideTimer.Stop()
	}
	s.hideTimer = time.AfterFunc(s.cfg.SuccessDisplay, s.hideSuccess)
	s.mu.Unlock()

	s.closeSession(session)
}

func (s *Scanner) hideSuccess() {
	s.mu.Lock()
	s.showSuccess = false
	s.duplicate = false
	s.mu.Unlock()
	s.notify()
}

// Close ends the current session and releases the camera.
func (s *Scanner) Close() {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	s.closeSession(session)
}

func (s *Scanner) closeSession(session uint64) {
	s.mu.Lock()
	if s.session != session || (s.state != Scanning && s.state != Error) {
		s.mu.Unlock()
		return
	}
	held := s.camHeld
	s.camHeld = false
	s.session++
	s.state = Closed
	s.inFlight = false
	s.lastCode = ""
	s.errMsg = ""
	s.mu.Unlock()

	if held {
		if err := s.cam.Stop(); err != nil {
			slog.Warn("failed to release camera", "error", err)
		}
	}
	s.notify()
}

// Shutdown closes the scanner and waits for pending submissions.
func (s *Scanner) Shutdown() {
	s.Close()
	s.wg.Wait()

	s.mu.Lock()
	if s.hideTimer != nil {
		s.hideTimer.Stop()
	}
	s.mu.Unlock()
}

// Wait blocks until no submission is pending.
func (s *Scanner) Wait() {
	s.wg.Wait()
}

// Refresh reloads the total count.
func (s *Scanner) Refresh(ctx context.Context) error {
	count, err := s.api.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to load count: %w", err)
	}
	s.mu.Lock()
	s.count = count
	s.mu.Unlock()
	s.notify()
	return nil
}

// ClearAll deletes every validation on the server.
func (s *Scanner) ClearAll(ctx context.Context) (int64, error) {
	deleted, err := s.api.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear validations: %w", err)
	}
	s.mu.Lock()
	s.count = 0
	s.mu.Unlock()
	s.notify()
	return deleted, nil
}

func (s *Scanner) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Scanner) viewLocked() View {
	return View{
		State:       s.state,
		Count:       s.count,
		ShowSuccess: s.showSuccess,
		Duplicate:   s.duplicate,
		Error:       s.errMsg,
		InFlight:    s.inFlight,
	}
}

func (s *Scanner) notify() {
	if s.cfg.OnChange == nil {
		return
	}
	s.cfg.OnChange(s.View())
}
