package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired cache entries from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		removed, err := env.Store.DeleteExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("removed %d expired cache entries\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
