package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"summons-workers/pkg/registry"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every activity schema in the registry compiles",
	// The registry check needs no broker or model credentials.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("loading registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, a := range reg.Activities {
			fmt.Fprintf(out, "%-32s %-10s %-8s %s\n", a.TaskType, a.Version, a.Timeout, a.ImplementationStatus)
		}
		fmt.Fprintf(out, "%d activities OK\n", len(reg.Activities))
		return nil
	},
}

func init() {
	registryValidateCmd.Flags().StringVar(&registryPath, "path", "", "Registry JSON file; empty uses the embedded registry")
	registryCmd.AddCommand(registryValidateCmd)
	rootCmd.AddCommand(registryCmd)
}
