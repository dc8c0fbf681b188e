package projectionist

import (
	"html/template"
	"strings"
)

// ConvertViewToHTML prepares a captured terminal view for embedding
// in a contact sheet's HTML terminal emulator.
func ConvertViewToHTML(view string) template.HTML {
	if strings.TrimSpace(view) == "" {
		// Placeholder for empty content
		return template.HTML(`<div style="color: #666;">No terminal output at this point</div>`)
	}
	return template.HTML(convertANSIToHTML(view))
}

// convertANSIToHTML converts ANSI escape sequences to HTML with
// colors using a state machine. Regular characters are escaped so a
// view containing markup cannot break out of the terminal panel.
func convertANSIToHTML(ansiText string) string {
	var result strings.Builder
	i := 0

	for i < len(ansiText) {
		char := ansiText[i]

		// Skip carriage returns
		if char == '\r' {
			i++
			continue
		}

		// Convert newlines to HTML
		if char == '\n' {
			result.WriteString("<br>")
			i++
			continue
		}

		// Check for ANSI escape sequence
		if char == '\x1b' && i+1 < len(ansiText) && ansiText[i+1] == '[' {
			i += 2 // Skip \x1b[

			// Collect the sequence up to its terminator
			var seqBuilder strings.Builder
			for i < len(ansiText) {
				c := ansiText[i]
				if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
					seqBuilder.WriteByte(c)
					i++
					break
				}
				seqBuilder.WriteByte(c)
				i++
			}

			sequence := seqBuilder.String()

			// Convert known sequences to HTML
			if html := convertSequenceToHTML(sequence); html != "" {
				result.WriteString(html)
			}
			// Skip unknown sequences (cursor movements, clears, etc.)

		} else {
			// Regular character, escaped for HTML safety
			switch char {
			case '&':
				result.WriteString("&amp;")
			case '<':
				result.WriteString("&lt;")
			case '>':
				result.WriteString("&gt;")
			default:
				result.WriteByte(char)
			}
			i++
		}
	}

	return result.String()
}

// convertSequenceToHTML converts a single ANSI sequence to HTML.
// The palette mirrors the carousel's default styles.
func convertSequenceToHTML(sequence string) string {
	switch sequence {
	case "0m":
		return "</span>"
	case "1m":
		return `<span style="font-weight: bold;">`
	case "2m":
		return `<span style="opacity: 0.6;">`
	case "3m":
		return `<span style="font-style: italic;">`
	case "38;5;205m":
		return `<span style="color: #ff5faf;">`
	case "1;38;5;205m":
		return `<span style="color: #ff5faf; font-weight: bold;">`
	case "38;5;241m":
		return `<span style="color: #626262;">`
	case "38;5;238m":
		return `<span style="color: #444444;">`
	case "38;5;196m":
		return `<span style="color: #ff0000;">`
	case "1;38;5;196m":
		return `<span style="color: #ff0000; font-weight: bold;">`
	case "38;5;252m":
		return `<span style="color: #d0d0d0;">`
	default:
		// Skip unknown sequences (cursor movements, clears, etc.)
		return ""
	}
}

// escapeForHTML escapes view content for safe embedding in HTML
// attributes. html.EscapeString is avoided because it rewrites ANSI
// control characters, which must survive for the replay widget.
func escapeForHTML(content string) string {
	content = strings.ReplaceAll(content, "&", "&amp;") // Must be first
	content = strings.ReplaceAll(content, "\"", "&#34;")
	content = strings.ReplaceAll(content, "'", "&#39;")
	content = strings.ReplaceAll(content, "<", "&lt;")
	content = strings.ReplaceAll(content, ">", "&gt;")
	// Newlines become literal escapes inside the attribute
	content = strings.ReplaceAll(content, "\n", `\n`)
	content = strings.ReplaceAll(content, "\r", `\r`)
	return content
}
