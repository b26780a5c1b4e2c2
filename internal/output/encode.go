package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"harbortags/internal/rank"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"
)

// Formats understood by at least one sink.
const (
	FormatText   = "text"
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
	FormatYAML   = "yaml"
)

type palette struct {
	header *color.Color
	failed *color.Color
	denied *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		header: color.New(color.Bold),
		failed: color.New(color.FgRed),
		denied: color.New(color.FgYellow),
	}
	if noColor {
		p.header.DisableColor()
		p.failed.DisableColor()
		p.denied.DisableColor()
	}
	return p
}

// writeText renders the grouped human-readable report: a blank line and a
// "project:" header per project, followed by its indented label lines.
func writeText(w io.Writer, r *Report, p palette) error {
	var b bytes.Buffer
	for _, pr := range r.Projects {
		b.WriteString("\n")
		p.header.Fprintf(&b, "%s:", pr.Project)
		b.WriteString("\n")
		switch pr.Status {
		case StatusFailed:
			b.WriteString("  ")
			p.failed.Fprintf(&b, "FAILED: %s", pr.Error)
			b.WriteString("\n")
		case StatusDenied:
			b.WriteString("  ")
			p.denied.Fprint(&b, "(access denied: no tags visible)")
			b.WriteString("\n")
		default:
			if len(pr.Tags) == 0 {
				b.WriteString("  (no tags)\n")
			}
			for _, l := range pr.Tags {
				fmt.Fprintf(&b, "  %s\n", l.Text)
			}
		}
	}
	if failed := r.Failed(); len(failed) > 0 {
		b.WriteString("\n")
		p.failed.Fprintf(&b, "%d of %d projects failed.", len(failed), len(r.Projects))
		b.WriteString("\n")
	}
	_, err := w.Write(b.Bytes())
	return err
}

func writeTable(w io.Writer, r *Report, withTime bool, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)

	header := table.Row{"Project", "Rank", "Tag"}
	if withTime {
		header = append(header, "Pushed")
	}
	header = append(header, "Status")
	t.AppendHeader(header)

	for _, pr := range r.Projects {
		if len(pr.Tags) == 0 {
			row := table.Row{pr.Project, "-", "-"}
			if withTime {
				row = append(row, "-")
			}
			status := pr.Status
			if pr.Error != "" {
				status += ": " + pr.Error
			}
			t.AppendRow(append(row, status))
			continue
		}
		for _, l := range pr.Tags {
			row := table.Row{pr.Project, l.Marker(), l.Tag}
			if withTime {
				row = append(row, l.PushTime.In(loc).Format(rank.TimeLayout))
			}
			t.AppendRow(append(row, pr.Status))
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
	})
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()

	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSON(w io.Writer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func writeYAML(w io.Writer, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report as yaml failed: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func writeNDJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	switch t := v.(type) {
	case Event:
		return encoder.Encode(t)
	case *Report:
		for _, e := range eventsFromReport(t) {
			if err := encoder.Encode(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// ValidFormat reports whether format is accepted by a sink of the given kind.
// The console accepts every format; --emit and --out only structured ones.
func ValidFormat(format string, console bool) bool {
	switch format {
	case FormatJSON, FormatNDJSON, FormatYAML:
		return true
	case FormatText, FormatTable:
		return console
	default:
		return false
	}
}
