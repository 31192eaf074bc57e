package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/shipfast/livesync/todo"
)

var (
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle      = lipgloss.NewStyle().Faint(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	pendingMarker = lipgloss.NewStyle().Faint(true).Render("~")
)

// Checkbox renders the completion marker for a todo.
func Checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// StylePriority renders a priority with its color.
func StylePriority(p todo.Priority) string {
	switch p {
	case todo.PriorityHigh:
		return highStyle.Render(string(p))
	case todo.PriorityLow:
		return lowStyle.Render(string(p))
	default:
		return mediumStyle.Render(string(p))
	}
}

// StyleTitle renders a todo title, striking through completed items.
func StyleTitle(t todo.Todo) string {
	if t.Completed {
		return doneStyle.Render(t.Title)
	}
	return t.Title
}

// StyleHeader renders a section header line.
func StyleHeader(text string) string {
	return headerStyle.Render(text)
}

// RenderTodoLine renders a single todo for the live watch view. Pending
// marks items with an optimistic edit that has not settled yet.
func RenderTodoLine(t todo.Todo, pending bool) string {
	marker := " "
	if pending {
		marker = pendingMarker
	}
	return fmt.Sprintf("%s %s %s  %s", marker, Checkbox(t.Completed), StylePriority(t.Priority), StyleTitle(t))
}
