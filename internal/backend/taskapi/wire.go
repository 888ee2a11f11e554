package taskapi

import (
	"fmt"
	"strings"
	"time"

	"todo/internal/sanitize"
	"todo/internal/service"
)

// wireTask is the task record shape the server sends.
type wireTask struct {
	ID            string `json:"_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	DueDate       string `json:"dueDate"`
	DateFormatted string `json:"dateFormatted"`
}

// Wire layouts the server has been observed to emit for dueDate.
var dueDateLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02",
}

// decodeTask sanitizes every field of a wire record and validates its
// shape. A record with no id or an unknown status is rejected rather than
// admitted into the local collection.
func decodeTask(w wireTask) (service.Task, error) {
	id := sanitize.Clean(w.ID)
	if strings.TrimSpace(id) == "" {
		return service.Task{}, &service.ValidationError{Field: "_id", Reason: "missing in task record"}
	}
	status, err := service.ParseStatus(sanitize.Clean(w.Status))
	if err != nil {
		return service.Task{}, &service.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value in task %s", id)}
	}

	task := service.Task{
		ID:            id,
		Title:         sanitize.Clean(w.Title),
		Description:   sanitize.Clean(w.Description),
		Status:        status,
		DateFormatted: sanitize.Clean(w.DateFormatted),
	}
	if due := strings.TrimSpace(sanitize.Clean(w.DueDate)); due != "" {
		if ts, ok := parseDueDate(due); ok {
			task.DueDate = &ts
		}
	}
	return task, nil
}

// parseDueDate tries the known wire layouts. An unparseable date is
// treated as absent; the display string still carries it.
func parseDueDate(s string) (time.Time, bool) {
	for _, layout := range dueDateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
