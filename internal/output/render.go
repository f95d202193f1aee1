// Package output renders a search response into the supported formats. It
// consumes the format-agnostic response shape only; nothing here feeds back
// into matching or ranking.
package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/codesift/codesift/pkg/types"
)

// Format selects a renderer.
type Format string

const (
	FormatTerminal  Format = "terminal"
	FormatPlain     Format = "plain"
	FormatMarkdown  Format = "markdown"
	FormatJSON      Format = "json"
	FormatXML       Format = "xml"
	FormatFilesOnly Format = "files-only"
)

// ParseFormat maps a user-supplied name to a Format; empty selects terminal.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "terminal", "color":
		return FormatTerminal, nil
	case "plain", "text":
		return FormatPlain, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "files-only", "files":
		return FormatFilesOnly, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

var (
	fileStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// Write renders resp to w in the requested format.
func Write(w io.Writer, resp *types.Response, format Format) error {
	switch format {
	case FormatTerminal:
		return writeTerminal(w, resp)
	case FormatPlain:
		return writePlain(w, resp)
	case FormatMarkdown:
		return writeMarkdown(w, resp)
	case FormatJSON:
		return writeJSON(w, resp)
	case FormatXML:
		return writeXML(w, resp)
	case FormatFilesOnly:
		return writeFilesOnly(w, resp)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTerminal(w io.Writer, resp *types.Response) error {
	header := headerStyle.Render(fmt.Sprintf("%d results (%d matched, %d files searched, %s)",
		len(resp.Results), resp.TotalMatches, resp.FilesSearched, resp.Elapsed.Round(0)))
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, r := range resp.Results {
		loc := fmt.Sprintf("%s %s %s",
			fileStyle.Render(r.File),
			lineStyle.Render(fmt.Sprintf("%d-%d", r.StartLine, r.EndLine)),
			scoreStyle.Render(fmt.Sprintf("%.4f", r.Score)))
		if _, err := fmt.Fprintln(w, loc); err != nil {
			return err
		}
		if r.Content != "" {
			if _, err := fmt.Fprintln(w, r.Content); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return writeFooter(w, resp)
}

func writePlain(w io.Writer, resp *types.Response) error {
	for _, r := range resp.Results {
		if _, err := fmt.Fprintf(w, "%s:%d-%d (%s, score %.4f)\n", r.File, r.StartLine, r.EndLine, r.Kind, r.Score); err != nil {
			return err
		}
		if r.Content != "" {
			if _, err := fmt.Fprintln(w, r.Content); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return writeFooter(w, resp)
}

func writeMarkdown(w io.Writer, resp *types.Response) error {
	if _, err := fmt.Fprintf(w, "## Search results (%d of %d)\n\n", len(resp.Results), resp.TotalMatches); err != nil {
		return err
	}
	for _, r := range resp.Results {
		if _, err := fmt.Fprintf(w, "### %s:%d-%d\n\n", r.File, r.StartLine, r.EndLine); err != nil {
			return err
		}
		if r.Content != "" {
			lang := languageHint(r.File)
			if _, err := fmt.Fprintf(w, "```%s\n%s\n```\n\n", lang, strings.TrimRight(r.Content, "\n")); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSON(w io.Writer, resp *types.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// xmlResult mirrors ScoredResult with element naming for the XML format.
type xmlResult struct {
	File      string   `xml:"file"`
	StartLine int      `xml:"start_line"`
	EndLine   int      `xml:"end_line"`
	Kind      string   `xml:"kind"`
	Score     float64  `xml:"score"`
	Terms     []string `xml:"matched_terms>term"`
	Content   string   `xml:"content,omitempty"`
}

type xmlResponse struct {
	XMLName      xml.Name    `xml:"results"`
	TotalMatches int         `xml:"total_matches,attr"`
	SessionID    string      `xml:"session_id,attr,omitempty"`
	Results      []xmlResult `xml:"result"`
}

func writeXML(w io.Writer, resp *types.Response) error {
	out := xmlResponse{TotalMatches: resp.TotalMatches, SessionID: resp.SessionID}
	for _, r := range resp.Results {
		out.Results = append(out.Results, xmlResult{
			File:      r.File,
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
			Kind:      string(r.Kind),
			Score:     r.Score,
			Terms:     r.MatchedTerms,
			Content:   r.Content,
		})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// writeFilesOnly prints each distinct file once, in result order.
func writeFilesOnly(w io.Writer, resp *types.Response) error {
	seen := make(map[string]bool, len(resp.Results))
	for _, r := range resp.Results {
		if seen[r.File] {
			continue
		}
		seen[r.File] = true
		if _, err := fmt.Fprintln(w, r.File); err != nil {
			return err
		}
	}
	return nil
}

func writeFooter(w io.Writer, resp *types.Response) error {
	if resp.Truncated {
		if _, err := fmt.Fprintf(w, "(truncated; %d total matches", resp.TotalMatches); err != nil {
			return err
		}
		if resp.SessionID != "" {
			if _, err := fmt.Fprintf(w, ", session %s continues", resp.SessionID); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, ")"); err != nil {
			return err
		}
	}
	if resp.NeuralFallback {
		if _, err := fmt.Fprintln(w, "(neural rerank unavailable; lexical order shown)"); err != nil {
			return err
		}
	}
	return nil
}

// languageHint picks a fence label for markdown from the file extension.
func languageHint(file string) string {
	idx := strings.LastIndex(file, ".")
	if idx < 0 {
		return ""
	}
	switch file[idx+1:] {
	case "go":
		return "go"
	case "rs":
		return "rust"
	case "py":
		return "python"
	case "js", "jsx":
		return "javascript"
	case "ts", "tsx":
		return "typescript"
	case "rb":
		return "ruby"
	case "java":
		return "java"
	case "c", "h":
		return "c"
	case "cpp", "cc", "hpp":
		return "cpp"
	default:
		return ""
	}
}
