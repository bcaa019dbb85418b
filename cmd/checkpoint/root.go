package main

import (
	"github.com/spf13/cobra"

	"checkpoint/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var pathFlag string
	var ignoreFlag []string
	var actionFlag string
	var nameFlag string

	ctx := newCommandContext(&configFlag, &pathFlag, &ignoreFlag)

	rootCmd := &cobra.Command{
		Use:           "checkpoint",
		Short:         "Create restore points in your projects",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if actionFlag == "" {
				return cmd.Help()
			}
			return runAction(cmd, ctx, actionFlag, nameFlag)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&pathFlag, "path", "p", ".", "Path to the project")
	rootCmd.PersistentFlags().StringSliceVarP(&ignoreFlag, "ignore-dirs", "i", append([]string{}, config.DefaultIgnoreDirs...), "Directory name fragments to ignore (stored at init)")
	rootCmd.Flags().StringVarP(&actionFlag, "action", "a", "", "Action to perform: init, create, restore, delete, version")
	rootCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Name of the restore point")

	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newCreateCommand(ctx))
	rootCmd.AddCommand(newRestoreCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newVersionCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
