package markdown

import (
	"strings"
	"testing"
)

func TestRender_EmptyInput(t *testing.T) {
	if out := Render(80, ""); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
	if out := Render(80, "  \n\t\n"); out != "" {
		t.Errorf("expected empty output for whitespace, got %q", out)
	}
}

func TestRender_PlainText(t *testing.T) {
	out := Render(80, "pick up groceries")
	if !strings.Contains(out, "pick up groceries") {
		t.Errorf("expected rendered output to contain the input text, got %q", out)
	}
	if strings.HasSuffix(out, "\n") {
		t.Errorf("expected trailing newlines trimmed, got %q", out)
	}
}

func TestRender_ListItems(t *testing.T) {
	out := Render(80, "- milk\n- eggs")
	if !strings.Contains(out, "milk") || !strings.Contains(out, "eggs") {
		t.Errorf("expected list items in output, got %q", out)
	}
}

func TestRender_ClampsWidth(t *testing.T) {
	// Zero or negative widths must not panic.
	out := Render(0, "hello")
	if !strings.Contains(out, "hello") {
		t.Errorf("expected output at clamped width, got %q", out)
	}
}
