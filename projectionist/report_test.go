package projectionist

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestStill develops a tiny real PNG for attachment tests
func writeTestStill(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xE0
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

// TestContactSheet_Creation tests basic contact sheet structure
func TestContactSheet_Creation(t *testing.T) {
	sheet := ContactSheet{
		Screening: "wheel_navigation",
		Timestamp: "20240101_120000",
		Duration:  250 * time.Millisecond,
		Success:   true,
		Metadata: map[string]string{
			"framework": "bubbletea",
		},
	}

	assert.Equal(t, "wheel_navigation", sheet.Screening)
	assert.Equal(t, "20240101_120000", sheet.Timestamp)
	assert.Equal(t, 250*time.Millisecond, sheet.Duration)
	assert.True(t, sheet.Success)
	assert.Equal(t, "bubbletea", sheet.Metadata["framework"])
}

// TestFromScreening tests conversion of a finished screening
func TestFromScreening(t *testing.T) {
	s := &Screening{
		Cues: []Cue{
			{Timestamp: time.Now(), Type: "keypress", Details: "next"},
			{Timestamp: time.Now(), Type: "assertion", Details: "index=1"},
		},
		Frames: []Frame{
			{Timestamp: time.Now(), View: "\x1b[1mCard 2\x1b[0m", Scene: "carousel", Index: 1},
		},
		Success:  true,
		Duration: 1500 * time.Millisecond,
	}

	sheet := FromScreening("wheel_navigation", s)

	assert.Equal(t, "wheel_navigation", sheet.Screening)
	assert.True(t, sheet.Success)
	assert.Equal(t, 1500*time.Millisecond, sheet.Duration)
	assert.Len(t, sheet.Cues, 2)
	assert.Equal(t, "keypress", sheet.Cues[0].Type)
	assert.Equal(t, "next", sheet.Cues[0].Details)

	// Final frame rendered as HTML
	assert.Contains(t, string(sheet.FinalView), "Card 2")
	assert.Contains(t, string(sheet.FinalView), "font-weight: bold")

	// A single frame is nothing to scrub through
	assert.Empty(t, sheet.Replay)

	// Timestamp must be valid for marquee directory scanning
	_, err := time.Parse("20060102_150405", sheet.Timestamp)
	assert.NoError(t, err)
}

// TestFromScreening_Replay tests frame packing for the replay widget
func TestFromScreening_Replay(t *testing.T) {
	s := &Screening{
		Frames: []Frame{
			{View: "Card 1\nof 3", Scene: "carousel", Index: 0},
			{View: `Card "2" & friends`, Scene: "carousel", Index: 1},
			{View: "Card 3", Scene: "carousel", Index: 2},
		},
		Success: true,
	}

	sheet := FromScreening("replay_test", s)

	attr := string(sheet.Replay)
	assert.True(t, strings.HasPrefix(attr, `data-frames="`))

	// Frame-internal newlines are escaped, so raw newlines only
	// separate frames
	assert.Equal(t, 2, strings.Count(attr, "\n"))
	assert.Contains(t, attr, `Card 1\nof 3`)

	// Attribute-breaking characters cannot escape the quoting
	assert.Contains(t, attr, "Card &#34;2&#34; &amp; friends")
	assert.NotContains(t, attr[len(`data-frames="`):len(attr)-1], `"`)
}

// TestStillLabel tests label derivation from shot filenames
func TestStillLabel(t *testing.T) {
	assert.Equal(t, "after_select", stillLabel("shot_003_after_select.png"))
	assert.Equal(t, "stepped", stillLabel("shot_000_stepped.png"))
	assert.Equal(t, "shot_001", stillLabel("shot_001.png"))
	assert.Equal(t, "take", stillLabel("take.png"))
}

// TestSheetWriter_WriteSheet tests HTML contact sheet generation
func TestSheetWriter_WriteSheet(t *testing.T) {
	tempDir := t.TempDir()
	writer := NewSheetWriter(tempDir)

	sheet := ContactSheet{
		Screening: "wheel_navigation",
		Timestamp: "20240101_120000",
		Duration:  2*time.Second + 500*time.Millisecond,
		Success:   true,
		Cues: []CueRecord{
			{Type: "keypress", Timestamp: time.Now(), Details: "next"},
		},
		Metadata:  map[string]string{"error": ""},
		FinalView: ConvertViewToHTML("Card 2 of 7"),
		Replay: replayAttr([]Frame{
			{View: "Card 1 of 7"},
			{View: "Card 2 of 7"},
		}),
	}

	err := writer.WriteSheet(sheet)
	assert.NoError(t, err)

	// Check that HTML file was created
	sheetPath := filepath.Join(tempDir, "index.html")
	assert.FileExists(t, sheetPath)

	// Read and verify HTML content
	content, err := os.ReadFile(sheetPath)
	require.NoError(t, err)

	htmlContent := string(content)
	assert.Contains(t, htmlContent, "wheel_navigation")
	assert.Contains(t, htmlContent, "Card 2 of 7")
	assert.Contains(t, htmlContent, "PASSED")
	assert.Contains(t, htmlContent, "<!DOCTYPE html>") // Valid HTML
	assert.Contains(t, htmlContent, "</html>")         // Complete HTML
	assert.Contains(t, htmlContent, "data-frames=")    // Replay widget wired
	assert.Contains(t, htmlContent, "replay-scrub")

	// The embedded metadata block must round-trip
	meta, err := extractSheetMetadata(sheetPath)
	require.NoError(t, err)
	assert.Equal(t, "wheel_navigation", meta.Screening)
	assert.Equal(t, "2.5s", meta.Duration)
	assert.True(t, meta.Success)
	assert.Equal(t, "contact_sheet", meta.ReportType)
}

// TestSheetWriter_ErrorHandling tests error handling in sheet generation
func TestSheetWriter_ErrorHandling(t *testing.T) {
	// Use a file as the parent so directory creation fails
	tempDir := t.TempDir()
	blocker := filepath.Join(tempDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	writer := NewSheetWriter(filepath.Join(blocker, "nested"))
	err := writer.WriteSheet(ContactSheet{Screening: "doomed"})
	assert.Error(t, err)
}

// TestSheetWriter_AttachStills tests still embedding as data URLs
func TestSheetWriter_AttachStills(t *testing.T) {
	tempDir := t.TempDir()

	writeTestStill(t, filepath.Join(tempDir, "shot_000_initial.png"))
	writeTestStill(t, filepath.Join(tempDir, "shot_001_after_next.png"))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("not a still"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "nested"), 0755))

	writer := NewSheetWriter(t.TempDir())
	sheet := ContactSheet{Screening: "attach_test"}

	err := writer.AttachStills(&sheet, tempDir)
	require.NoError(t, err)

	require.Len(t, sheet.Stills, 2)
	assert.Equal(t, "initial", sheet.Stills[0].Label)
	assert.Equal(t, "shot_000_initial.png", sheet.Stills[0].Filename)
	assert.Equal(t, 0, sheet.Stills[0].Step)
	assert.Equal(t, "after_next", sheet.Stills[1].Label)
	assert.Equal(t, 1, sheet.Stills[1].Step)
	assert.True(t, strings.HasPrefix(string(sheet.Stills[0].DataURL), "data:image/png;base64,"))
}

// TestSheetWriter_AttachStills_MissingDir tests the missing directory path
func TestSheetWriter_AttachStills_MissingDir(t *testing.T) {
	writer := NewSheetWriter(t.TempDir())
	sheet := ContactSheet{Screening: "no_stills"}

	err := writer.AttachStills(&sheet, filepath.Join(t.TempDir(), "nowhere"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read stills directory")
}

// TestConvertImageToDataURL tests MIME detection and encoding
func TestConvertImageToDataURL(t *testing.T) {
	tempDir := t.TempDir()

	pngPath := filepath.Join(tempDir, "still.png")
	writeTestStill(t, pngPath)

	dataURL, err := convertImageToDataURL(pngPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dataURL), "data:image/png;base64,"))

	// JPEG extension switches the MIME type, content is not inspected
	jpgPath := filepath.Join(tempDir, "still.jpg")
	require.NoError(t, os.WriteFile(jpgPath, []byte("jpeg bytes"), 0644))
	dataURL, err = convertImageToDataURL(jpgPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dataURL), "data:image/jpeg;base64,"))

	_, err = convertImageToDataURL(filepath.Join(tempDir, "missing.png"))
	assert.Error(t, err)
}

// TestGenerateMarquee tests marquee generation functionality
func TestGenerateMarquee(t *testing.T) {
	baseDir := t.TempDir()

	// A real contact sheet with embedded metadata
	sheetDir := filepath.Join(baseDir, "nav_suite", "20240101_120000")
	writer := NewSheetWriter(sheetDir)
	require.NoError(t, writer.WriteSheet(ContactSheet{
		Screening: "nav_suite",
		Timestamp: "20240101_120000",
		Duration:  3 * time.Second,
		Success:   true,
	}))

	// A sheet without the metadata block, named from its directory
	legacyDir := filepath.Join(baseDir, "fault_suite", "20240101_130000")
	require.NoError(t, os.MkdirAll(legacyDir, 0755))
	legacyHTML := `<html><head><title>fault_suite</title></head><body>legacy</body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "index.html"), []byte(legacyHTML), 0644))

	// A directory that does not parse as a timestamp is skipped
	strayDir := filepath.Join(baseDir, "scratch", "not_a_timestamp")
	require.NoError(t, os.MkdirAll(strayDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(strayDir, "index.html"), []byte("<html></html>"), 0644))

	err := GenerateMarquee(baseDir)
	assert.NoError(t, err)

	// Check that marquee was created
	marqueePath := filepath.Join(baseDir, "index.html")
	assert.FileExists(t, marqueePath)

	content, err := os.ReadFile(marqueePath)
	require.NoError(t, err)

	marqueeHTML := string(content)
	assert.Contains(t, marqueeHTML, "Now showing")
	assert.Contains(t, marqueeHTML, "nav_suite")
	assert.Contains(t, marqueeHTML, "fault_suite")
	assert.NotContains(t, marqueeHTML, "scratch")
}

// TestScanContactSheets tests discovery ordering and enrichment
func TestScanContactSheets(t *testing.T) {
	baseDir := t.TempDir()

	older := filepath.Join(baseDir, "suite_a", "20240101_120000")
	newer := filepath.Join(baseDir, "suite_b", "20240102_120000")

	for _, dir := range []string{older, newer} {
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0644))
	}

	// Make modification order deterministic
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(older, "index.html"), past, past))

	entries, err := scanContactSheets(baseDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, "suite_b", entries[0].Screening)
	assert.Equal(t, "suite_a", entries[1].Screening)
	assert.Equal(t, filepath.Join("suite_a", "20240101_120000", "index.html"), entries[1].RelativePath)
}

// TestParseSheetMetadata tests the embedded JSON block parser
func TestParseSheetMetadata(t *testing.T) {
	html := `<html><head>
<script type="application/json" id="screening-metadata">
{"screening":"nav_suite","duration":"3s","stillCount":4,"timestamp":"20240101_120000","success":true,"reportType":"contact_sheet"}
</script>
</head><body></body></html>`

	meta, err := parseSheetMetadata(html)
	require.NoError(t, err)
	assert.Equal(t, "nav_suite", meta.Screening)
	assert.Equal(t, "3s", meta.Duration)
	assert.Equal(t, 4, meta.StillCount)
	assert.True(t, meta.Success)

	_, err = parseSheetMetadata("<html><body>nothing here</body></html>")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON metadata found")
}

// TestHTMLTemplateEmbedding tests that embedded templates are available
func TestHTMLTemplateEmbedding(t *testing.T) {
	// Verify templates are embedded
	assert.NotEmpty(t, contactSheetTemplate)
	assert.NotEmpty(t, marqueeTemplate)

	// Verify templates contain expected content
	assert.Contains(t, contactSheetTemplate, "<!DOCTYPE html>")
	assert.Contains(t, contactSheetTemplate, "screening-metadata")
	assert.Contains(t, marqueeTemplate, "<!DOCTYPE html>")
}

// TestReportGeneration_Integration tests end-to-end sheet generation
// from a live screening
func TestReportGeneration_Integration(t *testing.T) {
	model := &mockReel{count: 5, scene: "carousel"}
	p := NewProjectionistWithConfig(t, model, fastConfig())

	p.Start()
	p.PressNext().PressSelect().Wait(10 * time.Millisecond)
	screening := p.Stop()
	require.True(t, screening.Success)

	tempDir := t.TempDir()
	sheetDir := filepath.Join(tempDir, "integration", time.Now().Format("20060102_150405"))

	sheet := FromScreening("integration", screening)
	writer := NewSheetWriter(sheetDir)
	require.NoError(t, writer.WriteSheet(sheet))

	require.NoError(t, GenerateMarquee(tempDir))

	content, err := os.ReadFile(filepath.Join(tempDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "integration")

	sheetContent, err := os.ReadFile(filepath.Join(sheetDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(sheetContent), "Mock reel")
	assert.Contains(t, string(sheetContent), "keypress")
}
