package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cilq version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("cilq", version)
			return nil
		},
	}
}
