package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"wizdraft/internal/api"
	"wizdraft/internal/format"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	faintColor   = color.New(color.Faint)
)

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writeIndentedJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeSuccess(format string, args ...any) error {
	_, err := successColor.Fprintf(os.Stdout, "✓ "+format+"\n", args...)
	return err
}

func writeWarning(format string, args ...any) error {
	_, err := warnColor.Fprintf(os.Stderr, "! "+format+"\n", args...)
	return err
}

func writeDraftDetail(d api.DraftResponse) error {
	lines := []string{fmt.Sprintf("step: %d", d.Step)}
	if name := strings.TrimSpace(d.Student.FirstName + " " + d.Student.LastName); name != "" {
		lines = append(lines, fmt.Sprintf("student: %s", name))
	}
	if d.Student.Email != "" {
		lines = append(lines, fmt.Sprintf("email: %s", d.Student.Email))
	}
	if d.Student.Grade != "" {
		lines = append(lines, fmt.Sprintf("grade: %s", d.Student.Grade))
	}
	if len(d.Tutors) > 0 {
		lines = append(lines, "tutors:")
		for _, t := range d.Tutors {
			lines = append(lines, fmt.Sprintf("  - %s (%s)", t.Name, t.Relationship))
		}
	}
	if d.Pricing.PlanID != "" {
		lines = append(lines, fmt.Sprintf("plan: %s", d.Pricing.PlanID))
	}
	if len(d.Payments) > 0 {
		lines = append(lines, fmt.Sprintf("payments: %d", len(d.Payments)))
	}
	if d.UpdatedAt != nil {
		lines = append(lines, fmt.Sprintf("updated: %s", humanize.Time(*d.UpdatedAt)))
	}
	if err := writePlain("%s\n", strings.Join(lines, "\n")); err != nil {
		return err
	}

	if len(d.Attachments) == 0 {
		return writePlain("attachments: none\n")
	}
	if err := writePlain("attachments:\n"); err != nil {
		return err
	}
	for _, a := range d.Attachments {
		if err := writePlain("  %s\n", formatAttachmentLine(a)); err != nil {
			return err
		}
	}
	return nil
}

func formatAttachmentLine(a api.AttachmentStatus) string {
	state := a.State
	switch a.State {
	case api.AttachmentStored, api.AttachmentRestored:
		state = successColor.Sprint(a.State)
	case api.AttachmentMissing, api.AttachmentFailed:
		state = warnColor.Sprint(a.State)
	case api.AttachmentPending, api.AttachmentInMemory:
		state = faintColor.Sprint(a.State)
	}
	line := fmt.Sprintf("%-22s %s", a.Selector, state)
	if a.Name != "" {
		line += fmt.Sprintf("  %s (%s, %s)", a.Name, a.MimeType, humanize.IBytes(a.Size))
	}
	return line
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
