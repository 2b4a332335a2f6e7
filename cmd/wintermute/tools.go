package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/straylight-ai/wintermute/internal/tool"
	"github.com/straylight-ai/wintermute/internal/tool/builtins"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the built-in tools available to tool steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := tool.NewRegistry()
		if err := builtins.RegisterBuiltinTools(registry); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTools(registry.List()))
		return nil
	},
}
