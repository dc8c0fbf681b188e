package projectionist

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// syncReelUpdates processes model updates in order with duplicate
// detection. Every frame must land in sequence or the mirror lies.
func (p *Projectionist) syncReelUpdates() {
	defer func() {
		if r := recover(); r != nil {
			p.t.Logf("🚨 Reel sync goroutine panicked: %v", r)
		}
	}()

	for {
		select {
		case update := <-p.modelChan:
			currentSeq := atomic.LoadInt64(&p.lastProcessedSeq)

			// Detect sequence gaps and out-of-order updates
			if update.sequence <= currentSeq {
				atomic.AddInt64(&p.duplicateUpdates, 1)
				continue // Skip duplicate or out-of-order update
			}

			if update.sequence > currentSeq+1 {
				atomic.AddInt64(&p.sequenceGaps, 1)
			}

			p.modelMu.Lock()
			p.latestModel = update.model
			atomic.StoreInt64(&p.lastProcessedSeq, update.sequence)
			atomic.AddInt64(&p.updatesProcessed, 1)
			p.modelMu.Unlock()

		case <-p.ctx.Done():
			return
		}
	}
}

// WithTimeout sets a custom timeout for operations.
// IMPORTANT: Must be called before Start() - timeout cannot be changed
// after startup to avoid context management issues with running
// goroutines.
func (p *Projectionist) WithTimeout(timeout time.Duration) *Projectionist {
	if p.started {
		p.t.Logf("⚠️ Cannot change timeout after projectionist has started - ignoring WithTimeout(%v)", timeout)
		return p
	}

	// Cancel existing context and create new one with new timeout
	if p.cancel != nil {
		p.cancel()
	}
	p.ctx, p.cancel = context.WithTimeout(context.Background(), timeout)
	p.config.Timeout = timeout

	// The sync goroutine died with the old context; restart it
	go p.syncReelUpdates()
	return p
}

// WithFrameCapture enables or disables automatic frame snapshots.
// IMPORTANT: Must be called before Start() for consistent behavior.
func (p *Projectionist) WithFrameCapture(enabled bool) *Projectionist {
	if p.started {
		p.t.Logf("⚠️ Cannot change frame capture after projectionist has started - ignoring WithFrameCapture(%v)", enabled)
		return p
	}
	p.config.CaptureFrames = enabled
	return p
}

// Start threads the reel and begins cue recording.
//
// The model is wrapped so every Update lands in the projectionist's
// mirror, then run headlessly with no terminal attached. A standard
// 80x24 frame size is seated before the first cue since headless
// programs never receive a real terminal size.
func (p *Projectionist) Start() *Projectionist {
	if p.started {
		p.t.Logf("⚠️ Projectionist already started")
		return p
	}

	p.t.Logf("[TRACE] Start: Creating headless bubbletea program...")

	// Wrap the model to capture state changes
	wrapped := reelWrapper{
		ReelModel:     p.model,
		projectionist: p,
	}

	// Create a headless program (no terminal output) with test-friendly options
	p.program = tea.NewProgram(wrapped,
		tea.WithoutRenderer(), // No terminal rendering
		tea.WithInput(nil),    // No input reader (prevents TTY access)
		tea.WithOutput(nil),   // No output writer
	)

	p.t.Logf("[TRACE] Start: Starting program in background goroutine...")

	// Run the program in a separate goroutine
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.t.Logf("🚨 Program goroutine panicked: %v", r)
			}
		}()

		p.t.Logf("[TRACE] Start: About to call program.Run()...")
		_, err := p.program.Run()
		if err != nil {
			p.t.Logf("[TRACE] Start: program.Run() returned with error=%v", err)
		}
	}()

	p.t.Logf("[TRACE] Start: Waiting for program to be ready...")
	if err := p.waitForProgramReady(); err != nil {
		p.recordJam(newBoothJam("timing", "program failed to thread: "+err.Error(), map[string]interface{}{
			"error": err.Error(),
		}))
		return p
	}

	// Seat a standard frame size; headless programs get no WindowSizeMsg
	p.program.Send(tea.WindowSizeMsg{Width: 80, Height: 24})

	p.t.Logf("[TRACE] Start: Program ready, capturing initial frame...")
	p.started = true
	p.begunAt = time.Now()

	// Capture initial state with panic protection
	if p.config.CaptureFrames {
		p.frames = append(p.frames, p.guardedFrame())
	}

	p.t.Logf("[TRACE] Start: Start completed successfully")
	return p
}

// guardedFrame captures the current frame, surviving a model whose
// accessors panic mid-fault.
func (p *Projectionist) guardedFrame() Frame {
	var view string
	func() {
		defer func() {
			if r := recover(); r != nil {
				view = fmt.Sprintf("ERROR: Could not get view due to panic: %v", r)
			}
		}()
		view = p.getCurrentView()
	}()

	var scene string
	func() {
		defer func() {
			if r := recover(); r != nil {
				scene = "error_capture"
			}
		}()
		scene = p.getCurrentScene()
	}()

	var index int
	func() {
		defer func() {
			if r := recover(); r != nil {
				index = -1
			}
		}()
		index = p.getCurrentIndex()
	}()

	return Frame{
		Timestamp: time.Now(),
		View:      view,
		Scene:     scene,
		Index:     index,
	}
}

// Stop ends the screening and returns comprehensive results
func (p *Projectionist) Stop() *Screening {
	// Capture final state before stopping
	if p.config.CaptureFrames && p.started {
		p.frames = append(p.frames, p.guardedFrame())
	}

	// Cancel context and stop program
	if p.cancel != nil {
		p.cancel()
	}

	if p.program != nil {
		p.program.Quit()
	}

	// Close the model if it holds resources
	if closeable, ok := p.model.(Closeable); ok {
		if err := closeable.Close(); err != nil {
			p.t.Logf("⚠️ Model close failed: %v", err)
		}
	}

	duration := time.Duration(0)
	if p.started {
		duration = time.Since(p.begunAt)
	}
	success := !p.failed && (p.lastJam == nil)

	// Prepare fault details for comprehensive reporting
	var errorDetails strings.Builder
	var jamReport string

	if p.lastJam != nil {
		if report := p.jamHandler.DetailedReport(); report != "" {
			jamReport = report
		}

		errorDetails.WriteString(fmt.Sprintf("Jam Kind: %s\n", p.lastJam.Kind))
		errorDetails.WriteString(fmt.Sprintf("Error: %s\n", p.lastJam.Message))
		errorDetails.WriteString(fmt.Sprintf("Timestamp: %s\n", p.lastJam.Timestamp.Format(time.RFC3339)))

		if len(p.lastJam.Context) > 0 {
			errorDetails.WriteString("Context:\n")
			for key, value := range p.lastJam.Context {
				errorDetails.WriteString(fmt.Sprintf("  %s: %v\n", key, value))
			}
		}

		// Add mirror stats if the synchronization dropped anything
		if p.HasDroppedUpdates() {
			errorDetails.WriteString("\nSynchronization Issues:\n")
			stats := p.GetSynchronizationStats()
			for key, value := range stats {
				if strings.Contains(key, "dropped") || strings.Contains(key, "overflow") || strings.Contains(key, "gap") {
					if value > 0 {
						errorDetails.WriteString(fmt.Sprintf("  %s: %d\n", key, value))
					}
				}
			}
		}
	}

	return &Screening{
		Cues:         p.cues,
		Frames:       p.frames,
		Success:      success,
		Duration:     duration,
		ErrorMessage: p.getErrorMessage(),
		Error:        p.getError(),
		ErrorDetails: errorDetails.String(),
		JamReport:    jamReport,
	}
}

// WaitForScene waits for the application to show a specific scene
func (p *Projectionist) WaitForScene(expected string) *Projectionist {
	if p.failed {
		return p
	}

	timeout := time.NewTimer(p.config.Timeout)
	defer timeout.Stop()

	for {
		select {
		case <-timeout.C:
			p.recordJam(newBoothJam("timing", fmt.Sprintf("Timeout waiting for scene '%s'", expected), map[string]interface{}{
				"expected_scene": expected,
				"current_scene":  p.getCurrentScene(),
			}))
			return p
		case <-p.ctx.Done():
			return p
		default:
			if p.getCurrentScene() == expected {
				return p
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// WaitForIndex waits for the active item to land on a specific index
func (p *Projectionist) WaitForIndex(expected int) *Projectionist {
	if p.failed {
		return p
	}

	timeout := time.NewTimer(p.config.Timeout)
	defer timeout.Stop()

	for {
		select {
		case <-timeout.C:
			p.recordJam(newBoothJam("timing", fmt.Sprintf("Timeout waiting for index %d", expected), map[string]interface{}{
				"expected_index": expected,
				"current_index":  p.getCurrentIndex(),
			}))
			return p
		case <-p.ctx.Done():
			return p
		default:
			if p.getCurrentIndex() == expected {
				return p
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// WaitForText waits for specific text to appear in the current view
func (p *Projectionist) WaitForText(text string) *Projectionist {
	if p.failed {
		return p
	}

	timeout := time.NewTimer(p.config.Timeout)
	defer timeout.Stop()

	for {
		select {
		case <-timeout.C:
			p.recordJam(newBoothJam("timing", fmt.Sprintf("Timeout waiting for text '%s'", text), map[string]interface{}{
				"expected_text": text,
				"current_view":  p.getCurrentView(),
			}))
			return p
		case <-p.ctx.Done():
			return p
		default:
			if strings.Contains(p.getCurrentView(), text) {
				return p
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// WaitForCondition waits for a named model condition to become true
func (p *Projectionist) WaitForCondition(condition string) *Projectionist {
	if p.failed {
		return p
	}

	timeout := time.NewTimer(p.config.Timeout)
	defer timeout.Stop()

	for {
		select {
		case <-timeout.C:
			p.recordJam(newBoothJam("timing", fmt.Sprintf("Timeout waiting for condition '%s'", condition), map[string]interface{}{
				"condition": condition,
			}))
			return p
		case <-p.ctx.Done():
			return p
		default:
			if p.checkCondition(condition) {
				p.recordCue("wait_condition", condition)
				return p
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// WaitForSettle waits for the carousel to finish its cooldown and
// glide so the next cue is accepted rather than debounced.
func (p *Projectionist) WaitForSettle() *Projectionist {
	return p.WaitForCondition("settled")
}

// waitForProgramReady waits for the BubbleTea program to be ready
func (p *Projectionist) waitForProgramReady() error {
	p.t.Logf("[TRACE] waitForProgramReady: Starting wait with timeout=%v", p.config.Timeout)

	timeout := time.NewTimer(p.config.Timeout)
	defer timeout.Stop()

	for i := 0; i < 50; i++ { // Try up to 50 times
		select {
		case <-timeout.C:
			return fmt.Errorf("timeout waiting for program to be ready")
		case <-p.ctx.Done():
			return fmt.Errorf("context cancelled while waiting for program")
		default:
			// A non-empty view indicates the program is rendering
			if view := p.getCurrentView(); len(view) > 0 {
				p.t.Logf("[TRACE] waitForProgramReady: SUCCESS after %d checks - view length=%d", i+1, len(view))
				return nil
			}
			time.Sleep(20 * time.Millisecond)
		}
	}

	p.t.Logf("[TRACE] waitForProgramReady: TIMEOUT after 50 checks")
	return fmt.Errorf("program never became ready")
}

// waitForViewChange waits for the view to change from a previous state
func (p *Projectionist) waitForViewChange(previousView string) {
	timeout := p.config.Timeout
	if timeout > time.Second {
		timeout = time.Second // Cap at 1 second for view changes
	}

	p.t.Logf("[TRACE] waitForViewChange: Starting wait, timeout=%v, prev_view_len=%d", timeout, len(previousView))

	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	checkCount := 0
	for {
		select {
		case <-timer.C:
			p.t.Logf("[TRACE] waitForViewChange: TIMEOUT after %v (%d checks)", time.Since(start), checkCount)
			return
		case <-p.ctx.Done():
			p.t.Logf("[TRACE] waitForViewChange: Context cancelled")
			return
		default:
			checkCount++
			currentView := p.getCurrentView()
			if currentView != previousView {
				elapsed := time.Since(start)
				p.t.Logf("[TRACE] waitForViewChange: SUCCESS after %v (%d checks), new_view_len=%d", elapsed, checkCount, len(currentView))
				return
			}
			time.Sleep(2 * time.Millisecond) // Short sleep between checks
		}
	}
}

// getCurrentView safely retrieves the current view content
func (p *Projectionist) getCurrentView() string {
	p.modelMu.RLock()
	model := p.latestModel
	p.modelMu.RUnlock()

	if model != nil {
		return model.View()
	}
	return ""
}

// getCurrentScene safely retrieves the current scene name
func (p *Projectionist) getCurrentScene() string {
	p.modelMu.RLock()
	model := p.latestModel
	p.modelMu.RUnlock()

	if model != nil {
		return model.CurrentScene()
	}
	return ""
}

// getCurrentIndex safely retrieves the active item index
func (p *Projectionist) getCurrentIndex() int {
	p.modelMu.RLock()
	model := p.latestModel
	p.modelMu.RUnlock()

	if model != nil {
		return model.Index()
	}
	return -1
}

// checkCondition safely evaluates a named condition on the mirror
func (p *Projectionist) checkCondition(condition string) bool {
	p.modelMu.RLock()
	model := p.latestModel
	p.modelMu.RUnlock()

	if model != nil {
		return model.CheckCondition(condition)
	}
	return false
}

// LatestFrame returns the most recent captured frame
func (p *Projectionist) LatestFrame() Frame {
	if len(p.frames) == 0 {
		return Frame{}
	}
	return p.frames[len(p.frames)-1]
}

// CueCount returns the current number of recorded cues
func (p *Projectionist) CueCount() int {
	return len(p.cues)
}

// getErrorMessage returns a human-readable fault message
func (p *Projectionist) getErrorMessage() string {
	if p.lastJam != nil {
		return p.lastJam.Error()
	}
	return ""
}

// getError returns the structured fault
func (p *Projectionist) getError() error {
	if p.lastJam != nil {
		return p.lastJam
	}
	return nil
}
