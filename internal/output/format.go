// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"todo/internal/service"
)

// statusWidth fits the longest status ("In Progress").
const statusWidth = 11

// FormatTask formats a single task line.
// Format: "{N:>4}  {STATUS:<11}  {TITLE}" with the server's due-date
// display string appended when present.
func FormatTask(w io.Writer, num int, task service.Task) {
	title := normalizeTitle(task.Title)
	if task.DateFormatted != "" {
		fmt.Fprintf(w, "%4d  %-*s  %s  (due: %s)\n", num, statusWidth, task.Status, title, task.DateFormatted)
		return
	}
	fmt.Fprintf(w, "%4d  %-*s  %s\n", num, statusWidth, task.Status, title)
}

// FormatTaskDetail formats the full record for the show command.
// Remaining days counts whole days from now, rounded up.
func FormatTaskDetail(w io.Writer, task service.Task, now time.Time) {
	fmt.Fprintf(w, "Title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "Status:      %s\n", task.Status)
	if task.DateFormatted != "" {
		fmt.Fprintf(w, "Due date:    %s\n", task.DateFormatted)
	}
	if task.DueDate != nil {
		days := int(math.Ceil(task.DueDate.Sub(now).Hours() / 24))
		fmt.Fprintf(w, "Remaining:   %d days\n", days)
	}
	if strings.TrimSpace(task.Description) != "" {
		fmt.Fprintf(w, "Description: %s\n", normalizeTitle(task.Description))
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
