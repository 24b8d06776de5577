package summarizer

import (
	"fmt"
	"strings"
)

// Formatter turns a render summary into report text.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc adapts a function to Formatter.
type FormatFunc func(summary *Summary) string

func (f FormatFunc) Format(summary *Summary) string { return f(summary) }

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.translate = t }
}

// WithVersion sets the version shown in the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.version = v }
}

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", t("Watermark Summary"))
	fmt.Fprintf(&sb, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05"))

	// Files
	fmt.Fprintf(&sb, "## %s\n\n", t("Files"))
	f.tableHeader(&sb)
	row(&sb, t("Input"), s.Files.Input)
	row(&sb, t("Output"), s.Files.Output)
	row(&sb, t("Format"), strings.ToUpper(s.Files.Format))
	row(&sb, t("File Size"), formatBytes(s.Files.FileSize))
	sb.WriteString("\n")

	// Image
	fmt.Fprintf(&sb, "## %s\n\n", t("Image"))
	f.tableHeader(&sb)
	row(&sb, t("Source Size"), fmt.Sprintf("%dx%d", s.Image.SourceWidth, s.Image.SourceHeight))
	row(&sb, t("Canvas Size"), fmt.Sprintf("%dx%d", s.Image.CanvasWidth, s.Image.CanvasHeight))
	sb.WriteString("\n")

	// Watermark
	w := s.Watermark
	fmt.Fprintf(&sb, "## %s\n\n", t("Watermark"))
	f.tableHeader(&sb)
	row(&sb, t("Text"), escape(w.Text))
	font := w.FontUsed
	if w.FellBack {
		font = fmt.Sprintf("%s (%s: %s)", w.FontUsed, t("requested"), w.FontRequested)
	}
	row(&sb, t("Font"), font)
	row(&sb, t("Font Size"), fmt.Sprintf("%d pt", w.FontSize))
	row(&sb, t("Color"), w.Color)
	row(&sb, t("Rotation"), fmt.Sprintf("%d°", w.RotationAngle))
	anchors := t("None")
	if len(w.Anchors) > 0 {
		anchors = strings.Join(w.Anchors, ", ")
	}
	row(&sb, t("Anchors"), anchors)
	row(&sb, t("Render Time"), fmt.Sprintf("%d ms", s.DurationMs))
	sb.WriteString("\n")

	sb.WriteString("---\n")
	if f.version != "" {
		fmt.Fprintf(&sb, "%s watermarker %s\n", t("Generated by"), f.version)
	} else {
		fmt.Fprintf(&sb, "%s watermarker\n", t("Generated by"))
	}

	return sb.String()
}

func (f *MarkdownFormatter) tableHeader(sb *strings.Builder) {
	fmt.Fprintf(sb, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	sb.WriteString("|---|---|\n")
}

func row(sb *strings.Builder, label, value string) {
	fmt.Fprintf(sb, "| %s | %s |\n", label, value)
}

// escape keeps table cells intact.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// formatBytes formats a byte count with binary units.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
