package projectionist

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teranos/zoetrope/jam"
)

// Update intercepts model updates to keep the projectionist's mirror
// in sync. Every scene transition is captured as it happens.
func (w reelWrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Panic recovery for fail-fast fault handling
	defer func() {
		if r := recover(); r != nil {
			if w.projectionist != nil {
				w.projectionist.handleModelPanic(r, msg)
			}
		}
	}()

	newModel, cmd := w.ReelModel.Update(msg)

	// Validate model state for fail-fast detection
	if newModel == nil {
		if w.projectionist != nil {
			w.projectionist.handleInvalidModelState("Update returned nil model", msg)
		}
		return w, cmd
	}

	// Send the updated model with non-blocking delivery and overflow protection
	if w.projectionist != nil && w.projectionist.modelChan != nil {
		if reel, ok := newModel.(ReelModel); ok {
			// Generate sequence number atomically
			seq := atomic.AddInt64(&w.projectionist.updateSeq, 1)

			update := reelUpdate{
				model:     reel,
				sequence:  seq,
				timestamp: time.Now(),
			}

			// Non-blocking send with buffer overflow protection
			select {
			case w.projectionist.modelChan <- update:
				atomic.AddInt64(&w.projectionist.updatesSent, 1)
			default:
				// Buffer full - drop and count; the mirror catches up on the next update
				atomic.AddInt64(&w.projectionist.bufferOverflows, 1)
				atomic.AddInt64(&w.projectionist.droppedUpdates, 1)
			}
		}
	}

	// Return a new wrapper with the updated model instead of a stale one
	if reel, ok := newModel.(ReelModel); ok {
		return reelWrapper{
			ReelModel:     reel,
			projectionist: w.projectionist,
		}, cmd
	}

	// If the assertion fails, keep the old wrapper as fail-safe behavior
	if w.projectionist != nil {
		w.projectionist.handleInvalidModelState("Update returned non-ReelModel", msg)
	}
	return w, cmd
}

// PressNext simulates pressing the right arrow key.
//
// Advances the carousel to the next item, subject to the widget's
// command cooldown.
func (p *Projectionist) PressNext() *Projectionist {
	p.sendCue(tea.KeyMsg{Type: tea.KeyRight})
	p.recordCue("keypress", "next")
	return p
}

// PressPrev simulates pressing the left arrow key.
//
// Steps the carousel back to the previous item, subject to the
// widget's command cooldown.
func (p *Projectionist) PressPrev() *Projectionist {
	p.sendCue(tea.KeyMsg{Type: tea.KeyLeft})
	p.recordCue("keypress", "prev")
	return p
}

// PressSelect simulates pressing the Enter key.
//
// Confirms the currently active item, typically firing the host's
// selection callback.
func (p *Projectionist) PressSelect() *Projectionist {
	p.sendCue(tea.KeyMsg{Type: tea.KeyEnter})
	p.recordCue("keypress", "select")
	return p
}

// PressClose simulates pressing the Escape key.
//
// Requests dismissal of the carousel, typically firing the host's
// close callback.
func (p *Projectionist) PressClose() *Projectionist {
	p.sendCue(tea.KeyMsg{Type: tea.KeyEsc})
	p.recordCue("keypress", "close")
	return p
}

// PressRetry simulates pressing the retry key.
//
// On a collapsed scene this remounts the subtree and rethreads the
// reel.
func (p *Projectionist) PressRetry() *Projectionist {
	p.sendCue(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	p.recordCue("keypress", "retry")
	return p
}

// PressKeys simulates typing the given text character by character.
//
// Each character is sent as a separate key event with a configurable
// delay between keystrokes (see Config.CueDelay). Use this for the
// letter navigation bindings:
//
//	p.PressKeys("ddd")  // three steps forward via the 'd' binding
func (p *Projectionist) PressKeys(text string) *Projectionist {
	p.cueMu.Lock()
	defer p.cueMu.Unlock()

	for _, char := range text {
		msg := tea.KeyMsg{
			Type:  tea.KeyRunes,
			Runes: []rune{char},
		}

		p.sendCue(msg)
		p.recordCue("keypress", string(char))
		if p.config.CueDelay > 0 {
			time.Sleep(p.config.CueDelay) // Configurable cue pacing
		}
	}

	return p
}

// WheelForward simulates a mouse wheel scroll toward the next item.
func (p *Projectionist) WheelForward() *Projectionist {
	p.sendCue(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	p.recordCue("mouse", "wheel_forward")
	return p
}

// WheelBack simulates a mouse wheel scroll toward the previous item.
func (p *Projectionist) WheelBack() *Projectionist {
	p.sendCue(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	p.recordCue("mouse", "wheel_back")
	return p
}

// Click simulates a left mouse press at the given cell.
func (p *Projectionist) Click(x, y int) *Projectionist {
	p.sendCue(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	p.recordCue("mouse", fmt.Sprintf("click(%d,%d)", x, y))
	return p
}

// Send delivers an arbitrary message to the running program.
//
// Use this to drive the carousel the way a host application would,
// for example external index reconciliation:
//
//	p.Send(zoetrope.SetIndexMsg{Index: 4})
func (p *Projectionist) Send(msg tea.Msg) *Projectionist {
	p.sendCue(msg)
	p.recordCue("message", fmt.Sprintf("%T", msg))
	return p
}

// Wait pauses the screening for the specified duration.
//
// Use this when you need to wait out a fixed interval, for example
// the widget's command cooldown between rapid cues. For waiting on
// state changes, prefer WaitForScene, WaitForIndex, WaitForText or
// WaitForSettle.
//
// Example:
//
//	p.PressNext().Wait(350 * time.Millisecond).PressNext()
func (p *Projectionist) Wait(duration time.Duration) *Projectionist {
	time.Sleep(duration)
	p.recordCue("wait", duration)
	p.captureFrame("wait")
	return p
}

// AssertViewContains verifies that the current view contains the
// specified text
func (p *Projectionist) AssertViewContains(text string) *Projectionist {
	view := p.getCurrentView()
	if !strings.Contains(view, text) {
		p.recordJam(newBoothJam("input", "View does not contain expected text: "+text, map[string]interface{}{"expected": text, "actual_view": view}))
		return p
	}
	p.recordCue("assertion", "contains="+text)
	return p
}

// AssertScene verifies that the carousel is showing the expected scene
func (p *Projectionist) AssertScene(expected string) *Projectionist {
	actual := p.getCurrentScene()
	if actual != expected {
		p.recordJam(newBoothJam("input", "Expected scene "+expected+", got "+actual, map[string]interface{}{"expected": expected, "actual": actual}))
		return p
	}
	p.recordCue("assertion", "scene="+expected)
	return p
}

// AssertIndex verifies that the active item index matches
func (p *Projectionist) AssertIndex(expected int) *Projectionist {
	actual := p.getCurrentIndex()
	if actual != expected {
		p.recordJam(newBoothJam("input", fmt.Sprintf("Expected index %d, got %d", expected, actual), map[string]interface{}{"expected": expected, "actual": actual}))
		return p
	}
	p.recordCue("assertion", fmt.Sprintf("index=%d", expected))
	return p
}

// AssertCondition verifies that a named condition is currently true
// on the model
func (p *Projectionist) AssertCondition(condition string) *Projectionist {
	if !p.checkCondition(condition) {
		p.recordJam(newBoothJam("input", "Condition check failed: "+condition, map[string]interface{}{"condition": condition}))
		return p
	}
	p.recordCue("assertion", "condition="+condition)
	return p
}

// sendCue sends a message to the bubbletea program
func (p *Projectionist) sendCue(msg tea.Msg) {
	if p.program != nil {
		currentView := p.getCurrentView()
		p.t.Logf("[TRACE] sendCue: About to send message type=%T", msg)
		p.t.Logf("[TRACE] sendCue: Current view length=%d, first_50_chars=%q",
			len(currentView), p.truncateString(currentView, 50))

		sendStart := time.Now()
		p.program.Send(msg)
		p.t.Logf("[TRACE] sendCue: Message sent in %v, waiting for view change...", time.Since(sendStart))

		// Wait for the UI to update by checking for view changes
		p.waitForViewChange(currentView)
		p.captureFrame("cue")

		finalView := p.getCurrentView()
		p.t.Logf("[TRACE] sendCue: Complete. Final view length=%d, changed=%t",
			len(finalView), finalView != currentView)
	}
}

// recordCue logs a cue step
func (p *Projectionist) recordCue(cueType string, details interface{}) {
	p.cues = append(p.cues, Cue{
		Timestamp: time.Now(),
		Type:      cueType,
		Details:   details,
	})
}

// captureFrame captures the current state of the carousel
func (p *Projectionist) captureFrame(reason string) {
	if !p.config.CaptureFrames {
		return
	}
	p.frames = append(p.frames, p.guardedFrame())
}

// recordJam records a fault through the jam handler and marks the
// screening as failed when the fault is not recoverable
func (p *Projectionist) recordJam(j *jam.Jam) {
	p.jamHandler.Record(j)
	p.lastJam = j

	// Only mark as failed for non-recoverable jams
	if !j.CanRecover() {
		p.failed = true
	}

	if p.t != nil {
		p.t.Helper()
		if j.IsSnap() {
			p.t.Error(j) // Report critical jams to the testing framework
		} else {
			p.t.Log(j.DetailedString()) // Log other jams for debugging
		}
	}
}

// HasFailed returns true if the screening has encountered any faults
func (p *Projectionist) HasFailed() bool {
	return p.failed || !p.jamHandler.ShouldContinue()
}

// GetError returns the last fault encountered
func (p *Projectionist) GetError() error {
	if p.lastJam != nil {
		return p.lastJam
	}
	return nil
}

// GetJamHandler returns the jam handler for detailed fault analysis
func (p *Projectionist) GetJamHandler() *jam.Handler {
	return p.jamHandler
}

// GetSynchronizationStats returns detailed mirror synchronization
// metrics
func (p *Projectionist) GetSynchronizationStats() map[string]int64 {
	return map[string]int64{
		"updates_generated": atomic.LoadInt64(&p.updateSeq),
		"updates_sent":      atomic.LoadInt64(&p.updatesSent),
		"updates_processed": atomic.LoadInt64(&p.updatesProcessed),
		"buffer_overflows":  atomic.LoadInt64(&p.bufferOverflows),
		"sequence_gaps":     atomic.LoadInt64(&p.sequenceGaps),
		"duplicate_updates": atomic.LoadInt64(&p.duplicateUpdates),
		"updates_dropped":   atomic.LoadInt64(&p.droppedUpdates),
		"buffer_length":     int64(len(p.modelChan)),
		"buffer_capacity":   int64(cap(p.modelChan)),
	}
}

// HasDroppedUpdates returns true if any updates have been dropped
func (p *Projectionist) HasDroppedUpdates() bool {
	return atomic.LoadInt64(&p.droppedUpdates) > 0 ||
		atomic.LoadInt64(&p.bufferOverflows) > 0 ||
		atomic.LoadInt64(&p.sequenceGaps) > 0
}

// GetBufferUtilization returns current buffer usage as a percentage
func (p *Projectionist) GetBufferUtilization() float64 {
	if cap(p.modelChan) == 0 {
		return 0.0
	}
	return float64(len(p.modelChan)) / float64(cap(p.modelChan)) * 100.0
}

// ResetMetrics resets all mirror counters (useful for testing)
func (p *Projectionist) ResetMetrics() {
	atomic.StoreInt64(&p.updateSeq, 0)
	atomic.StoreInt64(&p.lastProcessedSeq, 0)
	atomic.StoreInt64(&p.droppedUpdates, 0)
	atomic.StoreInt64(&p.updatesSent, 0)
	atomic.StoreInt64(&p.updatesProcessed, 0)
	atomic.StoreInt64(&p.bufferOverflows, 0)
	atomic.StoreInt64(&p.sequenceGaps, 0)
	atomic.StoreInt64(&p.duplicateUpdates, 0)
}

// truncateString helper for logging long strings
func (p *Projectionist) truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// handleModelPanic implements fail-fast fault handling for model
// panics during Update
func (p *Projectionist) handleModelPanic(panicValue interface{}, msg tea.Msg) {
	p.t.Logf("🚨 FAIL-FAST: Model panic detected: %v", panicValue)

	// Capture visual fault state before failing
	p.captureFaultFrame("model_panic", fmt.Sprintf("Panic: %v", panicValue))

	// Create and record the jam to ensure proper failure and reporting
	panicJam := jam.FromPanic("scene", panicValue, jam.Context{
		"tea_msg":    fmt.Sprintf("%T: %+v", msg, msg),
		"model_type": fmt.Sprintf("%T", p.model),
		"timestamp":  time.Now(),
	}).WithSeverity(jam.Snap)
	p.recordJam(panicJam)

	// Cancel context to stop all operations immediately
	if p.cancel != nil {
		p.cancel()
	}

	p.t.Logf("🛑 FAIL-FAST: Projectionist stopped due to model panic")
}

// handleInvalidModelState implements fail-fast fault handling for
// invalid model states
func (p *Projectionist) handleInvalidModelState(reason string, msg tea.Msg) {
	p.t.Logf("🚨 FAIL-FAST: Invalid model state detected: %s", reason)

	// Capture visual fault state
	p.captureFaultFrame("invalid_model_state", reason)

	invalidStateJam := newBoothJam("scene", reason, map[string]interface{}{
		"tea_msg":    fmt.Sprintf("%T: %+v", msg, msg),
		"model_type": fmt.Sprintf("%T", p.model),
		"timestamp":  time.Now(),
	})
	p.recordJam(invalidStateJam)

	// Cancel context for fail-fast behavior
	if p.cancel != nil {
		p.cancel()
	}

	p.t.Logf("🛑 FAIL-FAST: Projectionist stopped due to invalid model state")
}

// captureFaultFrame captures a visual snapshot of fault states for
// debugging
func (p *Projectionist) captureFaultFrame(faultType, faultMessage string) {
	// Safely get the current view even if the model is in a fault state
	var currentView string
	func() {
		defer func() {
			if r := recover(); r != nil {
				currentView = fmt.Sprintf("ERROR: Could not get view due to panic: %v", r)
			}
		}()
		currentView = p.getCurrentView()
	}()

	// Create fault frame with details embedded in the view
	faultFrame := Frame{
		Timestamp: time.Now(),
		View:      fmt.Sprintf("FAULT STATE (%s)\n%s\n\nLast View:\n%s", faultType, faultMessage, currentView),
		Scene:     "fault_" + faultType,
		Index:     p.getCurrentIndex(),
	}

	p.frames = append(p.frames, faultFrame)
	p.t.Logf("📸 FAULT FRAME: Captured visual state for %s", faultType)
}
