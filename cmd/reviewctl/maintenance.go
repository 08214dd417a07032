package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"reviewhub_backend/internal/app"
	"reviewhub_backend/internal/auth"
	"reviewhub_backend/internal/services"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(syncCoursesCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(statsCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(db)
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var syncCoursesCmd = &cobra.Command{
	Use:   "sync-courses",
	Short: "Pull the course catalog from the upstream service",
	Long: `Fetch the upstream catalog and upsert it into the courses table, exactly
like the admin and cron sync endpoints.

Examples:
  reviewctl sync-courses
  AI_BASE_URL=https://catalog.example.com reviewctl sync-courses`,
	RunE: runSyncCourses,
}

func runSyncCourses(cmd *cobra.Command, args []string) error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(db)

	ctx, cancel := commandContext()
	defer cancel()

	svc := app.BuildServices(cfg, nil)
	res, err := svc.CourseService.Sync(ctx, db, services.SyncTriggerCLI)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Long: `Print a bcrypt hash for ADMIN_PASSWORD_HASH. The password is read from the
argument or, when omitted, from the first line of stdin.

Examples:
  reviewctl hash-password 'my secret'
  echo 'my secret' | reviewctl hash-password`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password from stdin: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if err := auth.ValidatePassword(password); err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the moderation dashboard numbers as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(db)

		ctx, cancel := commandContext()
		defer cancel()

		stats, err := app.BuildServices(cfg, nil).ReportService.Stats(ctx, db)
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
