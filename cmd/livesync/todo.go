package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shipfast/livesync/client"
	"github.com/shipfast/livesync/internal/markdown"
	"github.com/shipfast/livesync/internal/ui"
	"github.com/shipfast/livesync/todo"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage todos on a livesync server",
}

var (
	todoServer string
	todoToken  string
)

// todo create
var todoCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new todo",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoCreate,
}

var (
	todoCreatePriority    string
	todoCreateDescription string
	todoCreateDue         string
)

// todo list
var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos",
	RunE:  runTodoList,
}

var (
	todoListFilter string
	todoListJSON   bool
)

// todo show
var todoShowCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show detailed information about todos",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTodoShow,
}

var todoShowJSON bool

// todo update
var todoUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a todo",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoUpdate,
}

var (
	todoUpdateTitle       string
	todoUpdateDescription string
	todoUpdatePriority    string
	todoUpdateCompleted   bool
	todoUpdateDue         string
)

// todo toggle
var todoToggleCmd = &cobra.Command{
	Use:   "toggle <id>...",
	Short: "Toggle completion of one or more todos",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTodoToggle,
}

// todo delete
var todoDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more todos",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTodoDelete,
}

func init() {
	rootCmd.AddCommand(todoCmd)
	todoCmd.AddCommand(todoCreateCmd, todoListCmd, todoShowCmd, todoUpdateCmd,
		todoToggleCmd, todoDeleteCmd)

	todoCmd.PersistentFlags().StringVar(&todoServer, "server", "", "Server base URL")
	todoCmd.PersistentFlags().StringVar(&todoToken, "token", "", "Session token")

	// todo create flags
	todoCreateCmd.Flags().StringVarP(&todoCreatePriority, "priority", "p", "", "Priority (low, medium, high)")
	todoCreateCmd.Flags().StringVarP(&todoCreateDescription, "description", "d", "", "Description (markdown)")
	todoCreateCmd.Flags().StringVar(&todoCreateDue, "due", "", "Due date (2006-01-02 or RFC3339)")

	// todo list flags
	todoListCmd.Flags().StringVar(&todoListFilter, "filter", "", "Filter (all, active, completed)")
	todoListCmd.Flags().BoolVar(&todoListJSON, "json", false, "Output as JSON")

	// todo show flags
	todoShowCmd.Flags().BoolVar(&todoShowJSON, "json", false, "Output as JSON")

	// todo update flags
	todoUpdateCmd.Flags().StringVar(&todoUpdateTitle, "title", "", "New title")
	todoUpdateCmd.Flags().StringVar(&todoUpdateDescription, "description", "", "New description")
	todoUpdateCmd.Flags().StringVar(&todoUpdatePriority, "priority", "", "New priority (low, medium, high)")
	todoUpdateCmd.Flags().BoolVar(&todoUpdateCompleted, "completed", false, "Completion state")
	todoUpdateCmd.Flags().StringVar(&todoUpdateDue, "due", "", "New due date (2006-01-02 or RFC3339)")
}

// newClient builds an RPC client from flags and configuration.
func newClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	server := todoServer
	if server == "" {
		server = cfg.ServerURL()
	}
	token := todoToken
	if token == "" {
		token = cfg.Client.Token
	}
	if token == "" {
		return nil, fmt.Errorf("session token is required; pass --token or set [client] token in livesync.toml")
	}
	return client.New(server, token), nil
}

// resultErr converts a failed mutation envelope into a command error.
func resultErr(result todo.Result) error {
	if result.OK {
		return nil
	}
	if result.Message != "" {
		return fmt.Errorf("%s", result.Message)
	}
	return fmt.Errorf("%s", result.Err)
}

func parseTodoID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", arg)
	}
	return id, nil
}

func parseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q", value)
	}
	return &parsed, nil
}

func runTodoCreate(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	due, err := parseDueDate(todoCreateDue)
	if err != nil {
		return err
	}

	result, err := c.Create(cmd.Context(), args[0], todo.CreateOptions{
		Description: todoCreateDescription,
		Priority:    todo.Priority(todoCreatePriority),
		DueDate:     due,
	})
	if err != nil {
		return err
	}
	if err := resultErr(result); err != nil {
		return err
	}

	fmt.Printf("Created todo %d: %s\n", result.Todo.ID, result.Todo.Title)
	return nil
}

func runTodoList(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	mode, err := todo.ParseFilterMode(todoListFilter)
	if err != nil {
		return err
	}

	todos, err := c.List(cmd.Context(), mode)
	if err != nil {
		return err
	}

	if todoListJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(todos)
	}

	fmt.Print(formatTodoTable(todos, time.Now()))
	return nil
}

// formatTodoTable renders todos as an aligned table.
func formatTodoTable(todos []todo.Todo, now time.Time) string {
	if len(todos) == 0 {
		return "No todos found.\n"
	}

	table := ui.NewTable(
		ui.Column{Name: "ID", Right: true},
		ui.Column{Name: "DONE"},
		ui.Column{Name: "PRI"},
		ui.Column{Name: "TITLE"},
		ui.Column{Name: "DUE"},
		ui.Column{Name: "AGE"},
	)
	for _, t := range todos {
		table.Row(
			strconv.FormatInt(t.ID, 10),
			ui.Checkbox(t.Completed),
			string(t.Priority),
			ui.TruncateCell(t.Title),
			ui.FormatDueDate(t.DueDate, now),
			ui.FormatTimeAgo(t.CreatedAt, now),
		)
	}
	return table.String()
}

func runTodoShow(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	todos, err := c.List(cmd.Context(), todo.FilterAll)
	if err != nil {
		return err
	}
	byID := make(map[int64]todo.Todo, len(todos))
	for _, t := range todos {
		byID[t.ID] = t
	}

	selected := make([]todo.Todo, 0, len(args))
	for _, arg := range args {
		id, err := parseTodoID(arg)
		if err != nil {
			return err
		}
		t, ok := byID[id]
		if !ok {
			return fmt.Errorf("todo %d not found", id)
		}
		selected = append(selected, t)
	}

	if todoShowJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(selected)
	}

	for i, t := range selected {
		if i > 0 {
			fmt.Println("---")
		}
		printTodoDetail(t)
	}
	return nil
}

// printTodoDetail prints detailed information about a todo.
func printTodoDetail(t todo.Todo) {
	fmt.Printf("ID:       %d\n", t.ID)
	fmt.Printf("Title:    %s\n", t.Title)
	fmt.Printf("Done:     %s\n", ui.Checkbox(t.Completed))
	fmt.Printf("Priority: %s\n", t.Priority)
	if t.DueDate != nil {
		fmt.Printf("Due:      %s\n", t.DueDate.Format("2006-01-02"))
	}
	fmt.Printf("Created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:  %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))

	if t.Description != "" {
		fmt.Printf("\nDescription:\n%s\n", markdown.Render(terminalWidth(), t.Description))
	}
}

func runTodoUpdate(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	id, err := parseTodoID(args[0])
	if err != nil {
		return err
	}

	opts := todo.UpdateOptions{}

	// Only set fields that were explicitly provided
	if cmd.Flags().Changed("title") {
		opts.Title = &todoUpdateTitle
	}
	if cmd.Flags().Changed("description") {
		opts.Description = &todoUpdateDescription
	}
	if cmd.Flags().Changed("priority") {
		priority := todo.Priority(todoUpdatePriority)
		opts.Priority = &priority
	}
	if cmd.Flags().Changed("completed") {
		opts.Completed = &todoUpdateCompleted
	}
	if cmd.Flags().Changed("due") {
		if todoUpdateDue == "" {
			return fmt.Errorf("due date value is required")
		}
		due, err := parseDueDate(todoUpdateDue)
		if err != nil {
			return err
		}
		opts.DueDate = due
	}

	if opts.IsZero() {
		return fmt.Errorf("nothing to update; pass at least one field flag")
	}

	result, err := c.Update(cmd.Context(), id, opts)
	if err != nil {
		return err
	}
	if err := resultErr(result); err != nil {
		return err
	}

	fmt.Printf("Updated %d: %s\n", result.Todo.ID, result.Todo.Title)
	return nil
}

func runTodoToggle(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	for _, arg := range args {
		id, err := parseTodoID(arg)
		if err != nil {
			return err
		}
		result, err := c.Toggle(cmd.Context(), id)
		if err != nil {
			return err
		}
		if err := resultErr(result); err != nil {
			return err
		}
		fmt.Printf("Toggled %d: %s %s\n", result.Todo.ID, ui.Checkbox(result.Todo.Completed), result.Todo.Title)
	}
	return nil
}

func runTodoDelete(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	for _, arg := range args {
		id, err := parseTodoID(arg)
		if err != nil {
			return err
		}
		result, err := c.Delete(cmd.Context(), id)
		if err != nil {
			return err
		}
		if err := resultErr(result); err != nil {
			return err
		}
		fmt.Printf("Deleted %d\n", id)
	}
	return nil
}
