package main

import (
	"fmt"
	"strconv"
	"strings"

	"todo-tracker/backend/internal/client"
	"todo-tracker/backend/internal/models"
	"todo-tracker/backend/internal/ui"

	"github.com/spf13/cobra"
)

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid todo id %q", arg)
	}
	return uint(id), nil
}

func printTodo(cmd *cobra.Command, todo models.Todo) {
	fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s\n", todo.ID, ui.RenderLine(todo))
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			todos, err := opts.client().GetTodos(cmd.Context())
			if err != nil {
				return err
			}

			done := 0
			for _, todo := range todos {
				if todo.Completed {
					done++
				}
			}

			lines := []string{ui.Summary(done, len(todos))}
			if len(todos) > 0 {
				lines = append(lines, ui.ProgressBar(done, len(todos), 28), "")
				for _, todo := range todos {
					lines = append(lines, fmt.Sprintf("[%d] %s", todo.ID, ui.RenderLine(todo)))
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Panel(lines))
			return nil
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return fmt.Errorf("title cannot be empty")
			}

			input := models.CreateTodoInput{Title: title}
			if description != "" {
				input.Description = &description
			}

			todo, err := opts.client().CreateTodo(cmd.Context(), input)
			if err != nil {
				return err
			}

			ui.Ok(cmd.OutOrStdout(), fmt.Sprintf("added todo %d", todo.ID))
			printTodo(cmd, *todo)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		title            string
		description      string
		clearDescription bool
		completed        bool
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the title, description or completion of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("description") && clearDescription {
				return fmt.Errorf("--description and --clear-description are mutually exclusive")
			}

			input := models.UpdateTodoInput{ID: id}
			if flags.Changed("title") {
				input.Title = &title
			}
			if flags.Changed("description") {
				input.Description = models.NewNullableString(description)
			}
			if clearDescription {
				input.Description = models.NullString()
			}
			if flags.Changed("completed") {
				input.Completed = &completed
			}

			if input.Title == nil && !input.Description.Set && input.Completed == nil {
				return fmt.Errorf("nothing to change: pass --title, --description, --clear-description or --completed")
			}

			todo, err := opts.client().UpdateTodo(cmd.Context(), input)
			if err != nil {
				return err
			}

			ui.Ok(cmd.OutOrStdout(), fmt.Sprintf("updated todo %d", todo.ID))
			printTodo(cmd, *todo)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "Remove the description")
	cmd.Flags().BoolVar(&completed, "completed", false, "Set completion (--completed=false to reopen)")
	return cmd
}

func newToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip the completion of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			todo, err := opts.client().ToggleTodo(cmd.Context(), id)
			if err != nil {
				return err
			}

			printTodo(cmd, *todo)
			return nil
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			removed, err := opts.client().DeleteTodo(cmd.Context(), id)
			if err != nil {
				return err
			}

			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "todo %d did not exist\n", id)
				return nil
			}
			ui.Ok(cmd.OutOrStdout(), fmt.Sprintf("deleted todo %d", id))
			return nil
		},
	}
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive todo list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.Run(opts.client(), opts.timeout)
		},
	}
}

var _ ui.TodoAPI = (*client.Client)(nil)
