package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sujalbistaa/yatube/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached page",
	Long: `Drop every cached page from Redis (YATUBE_REDIS_ADDR).

Without Redis each server process holds its own in-memory cache, which this
command cannot reach.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Cache.RedisAddr == "" {
			return fmt.Errorf("YATUBE_REDIS_ADDR is not set")
		}

		c := cache.NewRedis(cfg.Cache.RedisAddr, cache.DefaultRedisPrefix)
		defer c.Close()

		if err := c.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		if err := c.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
