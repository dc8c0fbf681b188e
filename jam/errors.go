// Package jam provides fault handling for the zoetrope carousel.
//
// The jam package uses projection-booth metaphors for fault handling -
// when something goes wrong mid-show the film "flickers", a frame
// "burns", or in the worst case the film "snaps" and the show stops
// until someone rethreads the projector.
package jam

import (
	"fmt"
	"strings"
	"time"
)

// Jam represents a fault during a carousel session with rich context.
//
// Jams categorize the failures a running carousel can hit, providing
// structured context for diagnostics without tearing down the show.
//
// Fault kinds:
//   - "render": an item renderer plugin panicked or misbehaved
//   - "scene": scene assembly failed outside any item boundary
//   - "layout": ring placement or projection produced nonsense
//   - "input": key/mouse handling or simulated interaction issues
//   - "capture": still capture or encoding failures
//   - "timing": waits and cooldowns that did not land as expected
//
// Example usage:
//
//	j := NewJam("render", "card renderer panicked",
//	    Context{"item_id": "poster-3", "panic": "index out of range"})
//
//	if j.CanRecover() {
//	    // Keep the reel turning despite this flicker
//	}
type Jam struct {
	Kind      string    // Fault category for systematic handling
	Message   string    // Human-readable description
	Context   Context   // Additional debugging information
	Timestamp time.Time // When the fault occurred
	Attempt   int       // Which attempt/retry this was
	Severity  Severity  // How serious this fault is
}

// Context provides structured debugging information for jams.
//
// Context captures the state of the carousel when a fault occurs:
// the item involved, the active index, recent interactions.
type Context map[string]interface{}

// Severity indicates how serious a jam is and how it should be handled.
type Severity int

const (
	// Flicker indicates a minor issue that doesn't affect the show.
	// Examples: a still capture failed, a wait took one poll longer
	Flicker Severity = iota

	// Burn indicates one frame was lost: a single item's render
	// failed and its boundary substituted a placeholder.
	Burn

	// Snap indicates the film snapped: a scene-level failure that
	// stops the show until the subtree is remounted.
	Snap
)

func (s Severity) String() string {
	switch s {
	case Flicker:
		return "flicker"
	case Burn:
		return "burn"
	case Snap:
		return "snap"
	default:
		return "unknown"
	}
}

// NewJam creates a new jam with the current timestamp.
func NewJam(kind, message string, context Context) *Jam {
	return &Jam{
		Kind:      kind,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
		Severity:  Burn, // Default severity
	}
}

// NewFlicker creates a new jam with Flicker severity.
func NewFlicker(kind, message string, context Context) *Jam {
	return &Jam{
		Kind:      kind,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
		Severity:  Flicker,
	}
}

// NewSnap creates a new jam with Snap severity.
func NewSnap(kind, message string, context Context) *Jam {
	return &Jam{
		Kind:      kind,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
		Severity:  Snap,
	}
}

// FromPanic converts a recovered panic value into a jam. The panic
// value becomes the message; error values keep their Error() text.
func FromPanic(kind string, recovered interface{}, context Context) *Jam {
	message := fmt.Sprintf("%v", recovered)
	if err, ok := recovered.(error); ok {
		message = err.Error()
	}
	return NewJam(kind, message, context)
}

// WithAttempt sets the attempt number for this fault.
func (j *Jam) WithAttempt(attemptNumber int) *Jam {
	j.Attempt = attemptNumber
	return j
}

// WithSeverity sets the severity level for this fault.
func (j *Jam) WithSeverity(severity Severity) *Jam {
	j.Severity = severity
	return j
}

// Error implements the error interface.
func (j *Jam) Error() string {
	return fmt.Sprintf("[%s:%s] %s", j.Kind, j.Severity, j.Message)
}

// CanRecover returns true if the show can continue despite this fault.
func (j *Jam) CanRecover() bool {
	return j.Severity == Flicker
}

// IsSnap returns true if this fault should stop the show immediately.
func (j *Jam) IsSnap() bool {
	return j.Severity == Snap
}

// GetContext returns a specific context value if it exists.
func (j *Jam) GetContext(key string) (interface{}, bool) {
	if j.Context == nil {
		return nil, false
	}
	val, exists := j.Context[key]
	return val, exists
}

// DetailedString returns a comprehensive fault description with context.
func (j *Jam) DetailedString() string {
	var details strings.Builder

	details.WriteString(fmt.Sprintf("[%s:%s] %s", j.Kind, j.Severity, j.Message))
	details.WriteString(fmt.Sprintf("\n  Time: %s", j.Timestamp.Format("15:04:05.000")))

	if j.Attempt > 0 {
		details.WriteString(fmt.Sprintf("\n  Attempt: %d", j.Attempt))
	}

	if len(j.Context) > 0 {
		details.WriteString("\n  Context:")
		for key, value := range j.Context {
			details.WriteString(fmt.Sprintf("\n    %s: %v", key, value))
		}
	}

	return details.String()
}

// Handler manages fault collection and reporting for one component.
//
// The handler provides component-specific fault management so that
// different failures are handled appropriately. A burned frame keeps
// the reel turning; a snapped film stops it.
type Handler struct {
	component string  // Component name (e.g., "carousel", "film", "projectionist")
	jams      []*Jam  // Collected faults in chronological order
	flickers  []*Jam  // Collected minor issues in chronological order
	policy    *Policy // How to handle different fault kinds
}

// Policy defines how different kinds and severities of faults are handled.
type Policy struct {
	// StopOnSnap determines if the session should stop immediately on snaps
	StopOnSnap bool

	// MaxFlickers sets a limit on accumulated flickers before treating as a jam
	MaxFlickers int

	// RecoverableKinds lists fault kinds that are considered recoverable
	RecoverableKinds []string

	// RetryPolicy defines retry behavior for different fault kinds
	RetryPolicy map[string]RetryConfig
}

// RetryConfig defines retry behavior for specific fault kinds.
type RetryConfig struct {
	MaxRetries  int           // Maximum retry attempts
	Backoff     time.Duration // Delay between retries
	Exponential bool          // Whether to use exponential backoff
}

// DefaultPolicy returns a sensible default fault handling policy.
func DefaultPolicy() *Policy {
	return &Policy{
		StopOnSnap:       true,
		MaxFlickers:      10,
		RecoverableKinds: []string{"capture", "input", "timing"},
		RetryPolicy: map[string]RetryConfig{
			"capture": {MaxRetries: 3, Backoff: 100 * time.Millisecond, Exponential: false},
			"input":   {MaxRetries: 2, Backoff: 50 * time.Millisecond, Exponential: true},
			"timing":  {MaxRetries: 1, Backoff: 25 * time.Millisecond, Exponential: false},
		},
	}
}

// NewHandler creates a new fault handler for a specific component.
func NewHandler(component string, policy *Policy) *Handler {
	if policy == nil {
		policy = DefaultPolicy()
	}

	return &Handler{
		component: component,
		jams:      make([]*Jam, 0),
		flickers:  make([]*Jam, 0),
		policy:    policy,
	}
}

// Record adds a fault to the handler's collection.
func (h *Handler) Record(j *Jam) {
	if j.Severity == Flicker {
		h.flickers = append(h.flickers, j)
	} else {
		h.jams = append(h.jams, j)
	}
}

// ShouldContinue determines if the session should continue based on
// the faults recorded so far.
func (h *Handler) ShouldContinue() bool {
	// Stop on snapped film if policy requires it
	if h.policy.StopOnSnap {
		for _, j := range h.jams {
			if j.IsSnap() {
				return false
			}
		}
	}

	// Stop if too many flickers have accumulated
	if h.policy.MaxFlickers > 0 && len(h.flickers) > h.policy.MaxFlickers {
		return false
	}

	return true
}

// HasJams returns true if any faults (non-flickers) have been recorded.
func (h *Handler) HasJams() bool {
	return len(h.jams) > 0
}

// HasFlickers returns true if any flickers have been recorded.
func (h *Handler) HasFlickers() bool {
	return len(h.flickers) > 0
}

// GetJams returns all recorded faults.
func (h *Handler) GetJams() []*Jam {
	return h.jams
}

// GetFlickers returns all recorded flickers.
func (h *Handler) GetFlickers() []*Jam {
	return h.flickers
}

// GetRetryConfig returns the retry configuration for a specific fault kind.
func (h *Handler) GetRetryConfig(kind string) (RetryConfig, bool) {
	config, exists := h.policy.RetryPolicy[kind]
	return config, exists
}

// CanRecover returns true if the given fault kind is considered recoverable.
func (h *Handler) CanRecover(kind string) bool {
	for _, recoverableKind := range h.policy.RecoverableKinds {
		if recoverableKind == kind {
			return true
		}
	}
	return false
}

// Summary provides a concise overview of all faults and flickers.
func (h *Handler) Summary() string {
	if len(h.jams) == 0 && len(h.flickers) == 0 {
		return fmt.Sprintf("[%s] Clean projection, no incidents", h.component)
	}

	return fmt.Sprintf("[%s] %d jams, %d flickers",
		h.component, len(h.jams), len(h.flickers))
}

// DetailedReport provides a comprehensive report of all incidents.
func (h *Handler) DetailedReport() string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("=== %s Incident Report ===\n", h.component))
	report.WriteString(h.Summary() + "\n")

	if len(h.jams) > 0 {
		report.WriteString("\nJams:\n")
		for i, j := range h.jams {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, j.DetailedString()))
		}
	}

	if len(h.flickers) > 0 {
		report.WriteString("\nFlickers:\n")
		for i, flicker := range h.flickers {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, flicker.DetailedString()))
		}
	}

	return report.String()
}
