package projectionist

import (
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//go:embed templates/contact_sheet.html
var contactSheetTemplate string

//go:embed templates/marquee.html
var marqueeTemplate string

// ContactSheet represents a complete screening report: the stills,
// the cues that produced them, and the incident ledger.
type ContactSheet struct {
	Screening string            `json:"screening"`
	Timestamp string            `json:"timestamp"`
	Duration  time.Duration     `json:"duration"`
	Success   bool              `json:"success"`
	Stills    []StillEntry      `json:"stills"`
	Cues      []CueRecord       `json:"cues"`
	JamReport string            `json:"jam_report"`
	Metadata  map[string]string `json:"metadata"`
	FinalView template.HTML     `json:"-"` // Last captured view, rendered as HTML
	Replay    template.HTMLAttr `json:"-"` // data-frames attribute for the replay widget
}

// StillEntry represents a single developed still with context
type StillEntry struct {
	Label     string       `json:"label"`
	Filename  string       `json:"filename"`
	Timestamp time.Time    `json:"timestamp"`
	Step      int          `json:"step"`
	DataURL   template.URL `json:"data_url"` // Base64 data URL for embedding
}

// CueRecord represents one cue sent during the screening
type CueRecord struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}

// sheetMetadata is the structured block embedded in each report so
// the marquee can read it back without parsing HTML
type sheetMetadata struct {
	Screening  string `json:"screening"`
	Duration   string `json:"duration"`
	StillCount int    `json:"stillCount"`
	Timestamp  string `json:"timestamp"`
	Success    bool   `json:"success"`
	ReportType string `json:"reportType"`
}

// SheetWriter develops screening results into HTML contact sheets
type SheetWriter struct {
	outputDir string
	tmplCache map[string]*template.Template
}

// MarqueeEntry represents a single contact sheet on the marquee
type MarqueeEntry struct {
	Screening    string    `json:"screening"`
	Timestamp    string    `json:"timestamp"`
	Success      bool      `json:"success"`
	StillCount   int       `json:"still_count"`
	Duration     string    `json:"duration"`
	ReportPath   string    `json:"report_path"`
	RelativePath string    `json:"relative_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewSheetWriter creates a writer that develops sheets under outputDir
func NewSheetWriter(outputDir string) *SheetWriter {
	return &SheetWriter{
		outputDir: outputDir,
		tmplCache: make(map[string]*template.Template),
	}
}

// FromScreening converts a finished screening into a contact sheet.
// Stills are attached separately with AttachStills since the writer
// does not know where the operator developed them.
func FromScreening(name string, s *Screening) ContactSheet {
	cues := make([]CueRecord, 0, len(s.Cues))
	for _, cue := range s.Cues {
		cues = append(cues, CueRecord{
			Type:      cue.Type,
			Timestamp: cue.Timestamp,
			Details:   fmt.Sprintf("%v", cue.Details),
		})
	}

	var finalView template.HTML
	if len(s.Frames) > 0 {
		finalView = ConvertViewToHTML(s.Frames[len(s.Frames)-1].View)
	}

	return ContactSheet{
		Screening: name,
		Timestamp: time.Now().Format("20060102_150405"),
		Duration:  s.Duration,
		Success:   s.Success,
		Cues:      cues,
		JamReport: s.JamReport,
		Metadata:  map[string]string{"error": s.ErrorMessage},
		FinalView: finalView,
		Replay:    replayAttr(s.Frames),
	}
}

// replayAttr packs the captured frame sequence into a data-frames
// attribute for the sheet's replay widget. Frames are separated by raw
// newlines, which cannot occur inside an escaped frame.
func replayAttr(frames []Frame) template.HTMLAttr {
	if len(frames) < 2 {
		return ""
	}
	escaped := make([]string, 0, len(frames))
	for _, f := range frames {
		escaped = append(escaped, escapeForHTML(f.View))
	}
	return template.HTMLAttr(`data-frames="` + strings.Join(escaped, "\n") + `"`)
}

// AttachStills loads every PNG in dir into the sheet as an embedded
// data URL, in filename order so the shot counter keeps them
// chronological.
func (w *SheetWriter) AttachStills(sheet *ContactSheet, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read stills directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".png") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for i, name := range names {
		dataURL, err := convertImageToDataURL(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to embed still %s: %w", name, err)
		}
		sheet.Stills = append(sheet.Stills, StillEntry{
			Label:    stillLabel(name),
			Filename: name,
			Step:     i,
			DataURL:  dataURL,
		})
	}

	return nil
}

// WriteSheet develops the contact sheet into outputDir/index.html
func (w *SheetWriter) WriteSheet(sheet ContactSheet) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpl := w.sheetTemplate()

	sheetPath := filepath.Join(w.outputDir, "index.html")
	file, err := os.Create(sheetPath)
	if err != nil {
		return err
	}
	defer file.Close()

	meta := sheetMetadata{
		Screening:  sheet.Screening,
		Duration:   sheet.Duration.String(),
		StillCount: len(sheet.Stills),
		Timestamp:  sheet.Timestamp,
		Success:    sheet.Success,
		ReportType: "contact_sheet",
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal sheet metadata: %w", err)
	}

	data := struct {
		ContactSheet
		MetadataJSON template.JS
	}{
		ContactSheet: sheet,
		MetadataJSON: template.JS(metaJSON),
	}

	return tmpl.Execute(file, data)
}

// sheetTemplate returns the cached contact sheet template
func (w *SheetWriter) sheetTemplate() *template.Template {
	if tmpl, exists := w.tmplCache["sheet"]; exists {
		return tmpl
	}

	tmpl := template.Must(template.New("sheet").Parse(contactSheetTemplate))
	w.tmplCache["sheet"] = tmpl
	return tmpl
}

// stillLabel derives a human label from a shot filename, e.g.
// "shot_003_stepped.png" becomes "stepped".
func stillLabel(filename string) string {
	name := strings.TrimSuffix(filename, ".png")
	parts := strings.SplitN(name, "_", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return name
}

// convertImageToDataURL reads an image file and converts it to a
// base64 data URL for self-contained reports
func convertImageToDataURL(imagePath string) (template.URL, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}

	// Determine MIME type based on file extension
	ext := strings.ToLower(filepath.Ext(imagePath))
	var mimeType string
	switch ext {
	case ".png":
		mimeType = "image/png"
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	case ".gif":
		mimeType = "image/gif"
	default:
		mimeType = "image/png" // Default to PNG
	}

	base64Data := base64.StdEncoding.EncodeToString(imageBytes)
	return template.URL(fmt.Sprintf("data:%s;base64,%s", mimeType, base64Data)), nil
}

// GenerateMarquee creates a central marquee HTML file listing every
// contact sheet under baseDir, newest first.
func GenerateMarquee(baseDir string) error {
	entries, err := scanContactSheets(baseDir)
	if err != nil {
		return fmt.Errorf("failed to scan contact sheets: %w", err)
	}

	marqueePath := filepath.Join(baseDir, "index.html")
	file, err := os.Create(marqueePath)
	if err != nil {
		return fmt.Errorf("failed to create marquee file: %w", err)
	}
	defer file.Close()

	tmpl := template.Must(template.New("marquee").Parse(marqueeTemplate))

	marqueeData := struct {
		Sheets      []MarqueeEntry
		GeneratedAt time.Time
	}{
		Sheets:      entries,
		GeneratedAt: time.Now(),
	}

	return tmpl.Execute(file, marqueeData)
}

// scanContactSheets finds all contact sheets in the base directory
func scanContactSheets(baseDir string) ([]MarqueeEntry, error) {
	var entries []MarqueeEntry

	err := filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Look for index.html files in timestamped directories
		if info.Name() == "index.html" && path != filepath.Join(baseDir, "index.html") {
			dir := filepath.Dir(path)
			timestamp := filepath.Base(dir)

			// Validate timestamp format (20060102_150405)
			if _, err := time.Parse("20060102_150405", timestamp); err != nil {
				return nil
			}

			entry := MarqueeEntry{
				Screening:    filepath.Base(filepath.Dir(dir)),
				Timestamp:    timestamp,
				ReportPath:   path,
				RelativePath: relativePath(baseDir, path),
				CreatedAt:    info.ModTime(),
			}

			// Enrich from the embedded JSON metadata when present
			if meta, err := extractSheetMetadata(path); err == nil {
				entry.Success = meta.Success
				entry.StillCount = meta.StillCount
				entry.Duration = meta.Duration
				entry.Screening = meta.Screening
			}

			entries = append(entries, entry)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	// Newest first
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries, nil
}

// extractSheetMetadata reads the structured JSON block out of a
// generated contact sheet
func extractSheetMetadata(htmlPath string) (*sheetMetadata, error) {
	content, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, err
	}
	return parseSheetMetadata(string(content))
}

// parseSheetMetadata finds the metadata script block and unmarshals it
func parseSheetMetadata(htmlContent string) (*sheetMetadata, error) {
	start := strings.Index(htmlContent, `<script type="application/json" id="screening-metadata">`)
	if start == -1 {
		return nil, fmt.Errorf("no JSON metadata found")
	}

	jsonStart := strings.Index(htmlContent[start:], "{")
	if jsonStart == -1 {
		return nil, fmt.Errorf("no JSON opening brace found in metadata")
	}
	start = jsonStart + start

	scriptEnd := strings.Index(htmlContent[start:], "</script>")
	if scriptEnd == -1 {
		return nil, fmt.Errorf("no script closing tag found")
	}
	end := scriptEnd + start

	jsonStr := strings.TrimSpace(htmlContent[start:end])

	var meta sheetMetadata
	if err := json.Unmarshal([]byte(jsonStr), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse JSON metadata: %w", err)
	}

	return &meta, nil
}

// relativePath returns a relative path from base to target
func relativePath(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return rel
}
