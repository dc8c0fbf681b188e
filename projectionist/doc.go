package projectionist

// This file is an index; the implementation is split across focused
// files:
//
// - projectionist.go: Type definitions, configuration and constructors
// - screening.go: Lifecycle, waits and the synchronized model mirror
// - cues.go: Cue simulation, assertions and fault recording
// - operator.go: Visual tracking shots developed through the film package
// - ansi.go: ANSI-to-HTML conversion for report terminal panels
// - report.go: Contact sheet and marquee generation
