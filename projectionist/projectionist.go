// Package projectionist provides automated screening of BubbleTea
// carousel applications.
//
// The projectionist runs a model headlessly, feeds it cues the way a
// user would, and watches the reel through a synchronized mirror of
// the model. Sessions are fluent: cue, wait, assert, stop. Faults are
// collected as jams and returned in the final Screening rather than
// aborting the session mid-reel.
//
// Basic usage:
//
//	model := zoetrope.New(items)
//
//	screening := projectionist.NewProjectionist(t, model).
//		WithTimeout(5 * time.Second).
//		Start().
//		PressNext().
//		WaitForIndex(4).
//		AssertViewContains("1/5").
//		Stop()
//
//	assert.True(t, screening.Success)
//
// For visual screening with stills:
//
//	projectionist.NewOperator(t, model, "stills/").
//		Start().
//		CaptureTrackingShot("initial").
//		PressNextWithTrackingShot("stepped").
//		Stop()
package projectionist

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teranos/zoetrope/jam"
)

// reelUpdate represents a timestamped model state change with sequence
// tracking, consumed in order by syncReelUpdates()
type reelUpdate struct {
	model     ReelModel // The updated model state
	sequence  int64     // Unique sequence number for ordering
	timestamp time.Time // When the update was generated
}

// Closeable defines the interface for models that need resource
// cleanup. Models implementing it have Close() called automatically
// when the projectionist stops.
type Closeable interface {
	Close() error
}

// ReelModel defines the interface for screenable carousel applications.
//
// Any BubbleTea carousel can implement this interface to enable rich
// automated screening with projectionist. The interface extends
// tea.Model with inspection methods that let the screening framework
// observe and validate the application's state.
//
// Required methods:
//   - Index() returns the active item index
//   - Count() returns the number of items on the reel
//   - CurrentScene() names the surface currently shown
//   - CheckCondition() enables custom wait conditions and assertions
//
// Example implementation:
//
//	func (m MyCarousel) Index() int { return m.active }
//	func (m MyCarousel) Count() int { return len(m.items) }
//	func (m MyCarousel) CurrentScene() string { return m.scene.String() }
//	func (m MyCarousel) CheckCondition(condition string) bool {
//		switch condition {
//		case "settled": return !m.spinning
//		default: return false
//		}
//	}
type ReelModel interface {
	tea.Model
	// Index returns the active item index
	Index() int
	// Count returns the number of items on the reel
	Count() int
	// CurrentScene names the surface currently shown
	CurrentScene() string
	// CheckCondition allows custom wait conditions and assertions
	CheckCondition(condition string) bool
}

// Projectionist orchestrates automated screening of BubbleTea
// carousel applications.
//
// The projectionist provides a fluent API for simulating user cues,
// waiting for conditions, and asserting application state. It runs
// applications headlessly without terminal output, making it suitable
// for CI environments.
//
// The projectionist captures detailed cue logs and frame snapshots
// for debugging failed screenings. Faults are collected as jams and
// returned in the final Screening rather than immediately failing the
// test.
//
// Example usage:
//
//	p := NewProjectionist(t, model).
//		WithTimeout(10 * time.Second).
//		Start()
//
//	screening := p.
//		PressNext().
//		WaitForSettle().
//		AssertIndex(4).
//		Stop()
//
//	if !screening.Success {
//		t.Fatalf("Screening failed: %s", screening.ErrorMessage)
//	}
type Projectionist struct {
	t       *testing.T // Testing context for proper error handling
	model   ReelModel
	program *tea.Program
	ctx     context.Context
	cancel  context.CancelFunc
	begunAt time.Time

	// Cue tracking
	cues   []Cue
	frames []Frame

	// Fault tracking with the jam package
	jamHandler *jam.Handler
	lastJam    *jam.Jam
	failed     bool

	// Serializes multi-key cue sequences
	cueMu sync.Mutex

	// Model synchronization with atomic sequence tracking
	modelChan        chan reelUpdate
	latestModel      ReelModel
	modelMu          sync.RWMutex
	updateSeq        int64 // atomic counter for update ordering
	lastProcessedSeq int64 // atomic counter for processed updates
	droppedUpdates   int64 // atomic counter for diagnostic purposes

	// Metrics for mirror health monitoring
	updatesSent      int64 // atomic counter for successfully sent updates
	updatesProcessed int64 // atomic counter for processed updates
	bufferOverflows  int64 // atomic counter for buffer overflow events
	sequenceGaps     int64 // atomic counter for sequence gaps detected
	duplicateUpdates int64 // atomic counter for duplicate/out-of-order updates

	// Configuration
	config  Config
	started bool
}

// reelWrapper wraps the screened model to mirror every update back to
// the projectionist's booth
type reelWrapper struct {
	ReelModel
	projectionist *Projectionist
}

// Cue records a single interaction with the carousel during screening
type Cue struct {
	Timestamp time.Time
	Type      string      // "keypress", "mouse", "wait", "assertion", "tracking_shot"
	Details   interface{} // Specific cue details
	Result    interface{} // Result of the cue
}

// Frame captures the complete state of the application at a specific
// moment.
//
// Frames are automatically captured during screening and can be used
// for debugging failed sessions or understanding state transitions.
type Frame struct {
	Timestamp time.Time // When the frame was captured
	View      string    // The rendered view content
	Scene     string    // Scene shown at capture time
	Index     int       // Active item index at capture time
}

// Screening contains the complete results of a screening session.
//
// The result includes all cues performed, frames captured, timing
// information, and any faults encountered. Success indicates whether
// all operations completed without jams.
//
// Example usage:
//
//	screening := p.Stop()
//	if !screening.Success {
//		t.Logf("Screening failed after %v", screening.Duration)
//		t.Logf("Error: %s", screening.ErrorMessage)
//		for _, frame := range screening.Frames {
//			t.Logf("View at %v: %s", frame.Timestamp, frame.View)
//		}
//	}
type Screening struct {
	Cues         []Cue         // All cues performed
	Frames       []Frame       // Frames captured
	Success      bool          // Whether screening completed without jams
	Duration     time.Duration // Total screening time
	ErrorMessage string        // Human-readable fault description
	Error        error         // Structured fault for programmatic handling
	ErrorDetails string        // Detailed technical fault information
	JamReport    string        // Detailed incident report from the jam handler
}

// newBoothJam creates a jam for screening faults
func newBoothJam(kind, message string, context map[string]interface{}) *jam.Jam {
	jamContext := make(jam.Context)
	for k, v := range context {
		jamContext[k] = v
	}
	return jam.NewJam(kind, message, jamContext)
}

// Config configures the behavior of the Projectionist.
//
// The configuration allows customization of timeouts, cue timing, and
// debugging features to suit different screening scenarios.
//
// Example usage:
//
//	config := projectionist.Config{
//		Timeout:       5 * time.Second, // Shorter timeout for fast screenings
//		CueDelay:      0,               // No delay for speed
//		CaptureFrames: false,           // Disable frames for performance
//		MaxRetries:    1,               // No retries
//	}
//
//	p := projectionist.NewProjectionistWithConfig(t, model, config)
type Config struct {
	// Timeout for operations like waiting for conditions
	Timeout time.Duration
	// CueDelay controls delay between repeated cues (0 = no delay)
	CueDelay time.Duration
	// CaptureFrames enables/disables automatic frame snapshots
	CaptureFrames bool
	// MaxRetries for transient operations such as still capture
	MaxRetries int
}

// DefaultConfig returns a Config with sensible defaults.
//
// The default configuration provides:
//   - 30 second timeout for operations
//   - 10ms cue delay for realistic input pacing
//   - Frame capture enabled
//   - 3 retries for transient failures
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		CueDelay:      10 * time.Millisecond,
		CaptureFrames: true,
		MaxRetries:    3,
	}
}

// NewProjectionist creates a new Projectionist with default
// configuration.
//
// This is the main entry point for automated screening of BubbleTea
// carousels. The projectionist runs the application headlessly and
// provides a fluent API for simulating cues and asserting state.
//
// Parameters:
//   - t: The testing.T instance for error reporting
//   - model: A ReelModel implementation of your BubbleTea carousel
//
// Returns a projectionist ready to be configured and started. You
// must call Start() before sending cues and Stop() to get results.
//
// Example:
//
//	p := NewProjectionist(t, myModel)
//	screening := p.Start().PressNext().Stop()
func NewProjectionist(t *testing.T, model ReelModel) *Projectionist {
	return NewProjectionistWithConfig(t, model, DefaultConfig())
}

// NewProjectionistWithConfig creates a new Projectionist with custom
// configuration.
//
// Use this constructor when you need to customize timeouts, cue
// pacing, or other behavior. For most cases, NewProjectionist with
// defaults is sufficient.
//
// Parameters:
//   - t: The testing.T instance for error reporting
//   - model: A ReelModel implementation of your BubbleTea carousel
//   - config: Custom configuration for projectionist behavior
//
// Example:
//
//	config := Config{
//		Timeout:  5 * time.Second,
//		CueDelay: 0, // No cue delay
//	}
//	p := NewProjectionistWithConfig(t, model, config)
func NewProjectionistWithConfig(t *testing.T, model ReelModel, config Config) *Projectionist {
	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)

	p := &Projectionist{
		t:           t,
		model:       model,
		ctx:         ctx,
		cancel:      cancel,
		cues:        make([]Cue, 0),
		frames:      make([]Frame, 0),
		config:      config,
		started:     false,
		modelChan:   make(chan reelUpdate, 50), // Buffered channel with update metadata
		latestModel: model,                     // Initialize with starting model
		jamHandler:  jam.NewHandler("projectionist", jam.DefaultPolicy()),
	}

	// Start model synchronization goroutine
	go p.syncReelUpdates()

	return p
}
