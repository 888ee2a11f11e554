package commands

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"todo/internal/service"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a 1-based task number from args. The number refers
// to a task's position in the full listing of the current fetch.
func ParseTaskRef(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskRefRequired
	}
	ref := args[0]
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid task reference: %s", ref)
	}
	num, err := strconv.Atoi(ref)
	if err != nil || num < 1 {
		return 0, fmt.Errorf("invalid task reference: %s", ref)
	}
	return num, nil
}

// resolveTask maps a 1-based number to the task at that position.
func resolveTask(tasks []service.Task, num int) (service.Task, error) {
	if num < 1 || num > len(tasks) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", num)
	}
	return tasks[num-1], nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
