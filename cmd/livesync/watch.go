package main

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shipfast/livesync/client"
	"github.com/shipfast/livesync/internal/ui"
	"github.com/shipfast/livesync/todo"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch todos live as they change",
	RunE:  runWatch,
}

var watchFilter string

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFilter, "filter", "", "Filter (all, active, completed)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	mode, err := todo.ParseFilterMode(watchFilter)
	if err != nil {
		return err
	}

	lc, err := client.Live(cmd.Context(), c, nil)
	if err != nil {
		return err
	}
	defer lc.Close()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	renderFrame := func() {
		if interactive {
			clearScreen(os.Stdout)
		}
		renderWatchView(os.Stdout, terminalWidth(), mode, lc.Filtered(mode), lc.PendingCount())
	}

	renderFrame()
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-lc.Changed():
			renderFrame()
		}
	}
}

// renderWatchView writes one frame of the live view.
func renderWatchView(w io.Writer, width int, mode todo.FilterMode, items []todo.Todo, pendingCount int) {
	header := fmt.Sprintf("todos (%s)", mode)
	if pendingCount > 0 {
		header += fmt.Sprintf("  %d syncing", pendingCount)
	}
	fmt.Fprintln(w, ui.StyleHeader(header))

	if len(items) == 0 {
		fmt.Fprintln(w, "No todos found.")
		return
	}

	for _, item := range items {
		line := ui.RenderTodoLine(item, false)
		fmt.Fprintln(w, wordwrap.String(line, width))
	}
}

func clearScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[2J\x1b[H")
}

// terminalWidth returns the width of the attached terminal, or a
// reasonable default when output is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width < 20 {
		return 80
	}
	return width
}
