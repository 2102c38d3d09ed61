package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the redis embedding cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached embedding",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Redis.Enabled {
			return errors.New("redis cache is disabled (set redis.enabled)")
		}

		rc, err := newRedisCache(commandContext(cmd), cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()

		removed, err := rc.Purge(commandContext(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(fmt.Sprintf("Removed %d cached embedding(s)", removed)))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
