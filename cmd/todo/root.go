package main

import (
	"os"
	"time"

	"todo-tracker/backend/internal/client"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:2022"

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server, client.WithTimeout(o.timeout))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "Manage todos on a todo-tracker server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("TODO_SERVER")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVarP(&opts.server, "server", "s", server, "Server base URL (env TODO_SERVER)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newToggleCmd(opts),
		newRemoveCmd(opts),
		newTUICmd(opts),
	)
	return root
}
