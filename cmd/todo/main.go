package main

import (
	"os"

	"todo-tracker/backend/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		ui.Fail(os.Stderr, err.Error())
		os.Exit(1)
	}
}
