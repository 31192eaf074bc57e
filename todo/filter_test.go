package todo

import (
	"errors"
	"testing"
	"time"
)

func TestParseFilterMode(t *testing.T) {
	tests := []struct {
		input   string
		want    FilterMode
		wantErr bool
	}{
		{input: "", want: FilterAll},
		{input: "all", want: FilterAll},
		{input: "Active", want: FilterActive},
		{input: " COMPLETED ", want: FilterCompleted},
		{input: "done", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFilterMode(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidFilterMode) {
				t.Errorf("ParseFilterMode(%q) error = %v, want ErrInvalidFilterMode", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFilterMode(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilterMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFilter(t *testing.T) {
	items := []Todo{
		{ID: 1, Title: "a", Completed: false},
		{ID: 2, Title: "b", Completed: true},
		{ID: 3, Title: "c", Completed: false},
	}

	tests := []struct {
		mode    FilterMode
		wantIDs []int64
	}{
		{FilterAll, []int64{1, 2, 3}},
		{FilterActive, []int64{1, 3}},
		{FilterCompleted, []int64{2}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := Filter(items, tt.mode)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d items, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("item %d: id = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	items := []Todo{{ID: 1}, {ID: 2, Completed: true}}
	_ = Filter(items, FilterCompleted)
	if items[0].ID != 1 || items[1].ID != 2 {
		t.Error("input slice was modified")
	}
}

func TestSortNewestFirst(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	// A and C share a timestamp; B is newer. Expected order is newest
	// first with the tie broken by id ascending: B, A, C.
	items := []Todo{
		{ID: 1, Title: "A", CreatedAt: t1},
		{ID: 2, Title: "B", CreatedAt: t2},
		{ID: 3, Title: "C", CreatedAt: t1},
	}

	SortNewestFirst(items)

	wantTitles := []string{"B", "A", "C"}
	for i, want := range wantTitles {
		if items[i].Title != want {
			t.Errorf("position %d: got %q, want %q", i, items[i].Title, want)
		}
	}
}
