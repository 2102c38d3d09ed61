package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/session"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	tutorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	studentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("135"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// printEvents returns a session observer writing each utterance to w.
func printEvents(w io.Writer) func(session.Event) {
	return func(e session.Event) {
		label := "Student"
		style := studentStyle
		if e.Role == models.RoleTutor {
			label = "Tutor"
			style = tutorStyle
		}
		if e.Summary {
			label += " Summary"
		} else if e.Round > 0 {
			label += dimStyle.Render(fmt.Sprintf(" (round %d)", e.Round))
		}
		fmt.Fprintf(w, "%s %s\n\n", style.Render(label+":"), strings.TrimSpace(e.Text))
	}
}

func printResult(w io.Writer, res *session.Result) {
	row := res.Row
	title := headerStyle.Render("Session complete")
	if res.Interrupted {
		title = warnStyle.Render("Session interrupted, partial transcript scored")
	}

	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Session:"), row.SessionID)
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Profile:"), row.ProfileKey)
	fmt.Fprintf(w, "%s %d  %s %d / %d chars\n",
		titleStyle.Render("Rounds:"), row.Rounds,
		titleStyle.Render("Avg length tutor/student:"), row.TutorAverage, row.StudentAverage)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-22s %-10s %-10s %-10s\n", "", "Precision", "Recall", "F1")
	lines := []struct {
		name string
		t    models.Triple
	}{
		{"Tutor / LLM judge", row.Tutor.Judge},
		{"Tutor / similarity", row.Tutor.Similarity},
		{"Student / LLM judge", row.Student.Judge},
		{"Student / similarity", row.Student.Similarity},
	}
	for _, l := range lines {
		fmt.Fprintf(w, "%-22s %-10s %-10s %-10s\n", l.name, cell(l.t.Precision), cell(l.t.Recall), cell(l.t.F1))
	}
}

func cell(s models.Score) string {
	if !s.Valid {
		return dimStyle.Render("n/a")
	}
	return fmt.Sprintf("%.3f", s.Value)
}
