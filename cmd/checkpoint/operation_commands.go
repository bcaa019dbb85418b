package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"checkpoint/internal/checkpoint"
	"checkpoint/internal/services"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Prepare a project for checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, ctx, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Remove an existing checkpoint directory, its key and checkpoints first")
	return cmd
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	return newNamedCommand(ctx, "create", "Create a checkpoint of the project", runCreate)
}

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	return newNamedCommand(ctx, "restore", "Restore project files from a checkpoint", runRestore)
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return newNamedCommand(ctx, "delete", "Delete a checkpoint", runDelete)
}

type namedAction func(cmd *cobra.Command, ctx *commandContext, name string) error

func newNamedCommand(ctx *commandContext, use, short string, run namedAction) *cobra.Command {
	var nameFlag string

	cmd := &cobra.Command{
		Use:   use + " [name]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := nameFlag
			if len(args) == 1 {
				name = args[0]
			}
			return run(cmd, ctx, name)
		},
	}
	cmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Name of the restore point")
	return cmd
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the checkpoint version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, ctx)
		},
	}
}

// runAction dispatches the single-entry "--action" form.
func runAction(cmd *cobra.Command, ctx *commandContext, action, name string) error {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "init":
		return runInit(cmd, ctx, false)
	case "create":
		return runCreate(cmd, ctx, name)
	case "restore":
		return runRestore(cmd, ctx, name)
	case "delete":
		return runDelete(cmd, ctx, name)
	case "version":
		return runVersion(cmd, ctx)
	default:
		return services.Wrap(services.ErrConfiguration, "cli", "action",
			fmt.Sprintf("invalid action %q (expected init, create, restore, delete or version)", action), nil)
	}
}

func runInit(cmd *cobra.Command, ctx *commandContext, force bool) error {
	mgr, err := ctx.manager()
	if err != nil {
		return err
	}
	opts := checkpoint.InitOptions{IgnoreDirs: ctx.ignoreDirs(cmd), Force: force}
	if err := mgr.Init(cmd.Context(), opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", mgr.Layout().Dir)
	return nil
}

func runCreate(cmd *cobra.Command, ctx *commandContext, name string) error {
	if err := requireName("create", name); err != nil {
		return err
	}
	mgr, err := ctx.manager()
	if err != nil {
		return err
	}
	result, err := mgr.Create(cmd.Context(), name, checkpoint.CreateOptions{IgnoreDirs: ctx.ignoreDirs(cmd)})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created checkpoint %s (%d files)\n", result.Name, result.Files)
	if len(result.Dropped) > 0 {
		fmt.Fprintf(out, "Skipped extensions without a reader: %s\n", strings.Join(result.Dropped, ", "))
	}
	return nil
}

func runRestore(cmd *cobra.Command, ctx *commandContext, name string) error {
	if err := requireName("restore", name); err != nil {
		return err
	}
	mgr, err := ctx.manager()
	if err != nil {
		return err
	}
	result, err := mgr.Restore(cmd.Context(), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored checkpoint %s (%d files)\n", result.Name, result.Files)
	return nil
}

func runDelete(cmd *cobra.Command, ctx *commandContext, name string) error {
	if err := requireName("delete", name); err != nil {
		return err
	}
	mgr, err := ctx.manager()
	if err != nil {
		return err
	}
	if err := mgr.Delete(cmd.Context(), name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted checkpoint %s\n", name)
	return nil
}

func runVersion(cmd *cobra.Command, ctx *commandContext) error {
	mgr, err := ctx.manager()
	if err != nil {
		return err
	}
	v, err := mgr.Version(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "checkpoint %s\n", v)
	return nil
}

func requireName(action, name string) error {
	if strings.TrimSpace(name) == "" {
		return services.Wrap(services.ErrValidation, "cli", action, "a checkpoint name is required (--name)", nil)
	}
	return nil
}
