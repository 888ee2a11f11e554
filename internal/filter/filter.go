// Package filter derives the displayed subset of tasks from the full local
// collection and a selected status.
package filter

import (
	"fmt"
	"strings"

	"todo/internal/service"
)

// Selection is the status filter chosen by the user. Ephemeral view state:
// never persisted, never sent to the server.
type Selection string

const (
	All        Selection = "All"
	ToDo       Selection = Selection(service.StatusToDo)
	InProgress Selection = Selection(service.StatusInProgress)
	Done       Selection = Selection(service.StatusDone)
)

// Parse canonicalizes a selection string ("all" or any status form
// accepted by service.ParseStatus).
func Parse(s string) (Selection, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return All, nil
	}
	status, err := service.ParseStatus(s)
	if err != nil {
		return "", fmt.Errorf("invalid filter: %s", s)
	}
	return Selection(status), nil
}

// Visible returns the tasks to display for the selection. For All it
// returns all unchanged; otherwise the order-preserving subsequence whose
// status equals the selection. Pure function, recomputed per call.
func Visible(all []service.Task, sel Selection) []service.Task {
	if sel == All {
		return all
	}
	var visible []service.Task
	for _, t := range all {
		if t.Status == service.Status(sel) {
			visible = append(visible, t)
		}
	}
	return visible
}
