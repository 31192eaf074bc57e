package main

import (
	"strings"
	"testing"
	"time"

	"github.com/shipfast/livesync/todo"
)

func TestFormatTodoTable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)
	items := []todo.Todo{
		{ID: 3, Title: "call dentist", Priority: todo.PriorityHigh, CreatedAt: now.Add(-time.Minute), DueDate: &due},
		{ID: 1, Title: "buy milk", Priority: todo.PriorityLow, Completed: true, CreatedAt: now.Add(-2 * time.Hour)},
	}

	out := formatTodoTable(items, now)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), out)
	}

	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "TITLE") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "call dentist") || !strings.Contains(lines[1], "in 2d") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "[x]") || !strings.Contains(lines[2], "2h ago") {
		t.Errorf("second row = %q", lines[2])
	}
}

func TestFormatTodoTable_Empty(t *testing.T) {
	out := formatTodoTable(nil, time.Now())
	if out != "No todos found.\n" {
		t.Errorf("output = %q", out)
	}
}

func TestFormatTodoTable_TruncatesLongTitles(t *testing.T) {
	items := []todo.Todo{
		{ID: 1, Title: strings.Repeat("a", 120), Priority: todo.PriorityMedium, CreatedAt: time.Now()},
	}

	out := formatTodoTable(items, time.Now())
	if !strings.Contains(out, "...") {
		t.Errorf("expected truncated title, got %q", out)
	}
	if strings.Contains(out, strings.Repeat("a", 120)) {
		t.Error("expected long title to be shortened")
	}
}
