// Package main provides the commentsctl operator CLI.
// It works directly on the data directory and is meant to be run
// while the server is stopped or for read-only inspection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/portfolio-comments-api/internal/config"
	"github.com/portfolio-comments-api/internal/database"
	"github.com/portfolio-comments-api/internal/repository"
	"github.com/portfolio-comments-api/internal/service"
	"github.com/portfolio-comments-api/internal/validation"
	"github.com/portfolio-comments-api/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "commentsctl"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir  string
	logLevel string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Operate the portfolio comments data directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "Data directory (defaults to DATA_DIR)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		importCmd(flags),
		setPasswordCmd(flags),
		sessionsCmd(flags),
		auditCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

// openServices wires the same service graph as the server against the data directory
func openServices(flags *globalFlags) (*service.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.dataDir != "" {
		cfg.Storage.DataDir = flags.dataDir
	}

	log := logger.NewWithWriter(os.Stderr, flags.logLevel, "development")

	db, err := database.New(&cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	return service.NewServices(repository.New(db), cfg, log, nil)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func importCmd(flags *globalFlags) *cobra.Command {
	var (
		preview bool
		by      string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk import comments from a JSON file",
		Long: `Import comments from a JSON file in any of the accepted shapes:
an array of {page, comments} buckets, {"pages": [...]}, {"imports": [...]},
a single bucket, or a map of page to comment list.

Comments are de-duplicated per page on (email, text) and stored unapproved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			buckets, bodyPreview, err := validation.DecodeImportBody(raw)
			if err != nil {
				return err
			}

			services, err := openServices(flags)
			if err != nil {
				return err
			}

			res, err := services.Moderation.BulkImport(context.Background(), buckets, preview || bodyPreview, by)
			if err != nil {
				return err
			}
			if res.Preview {
				return printJSON(res.Pages)
			}
			return printJSON(res.Summary)
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "Report what would be imported without writing")
	cmd.Flags().StringVar(&by, "by", "commentsctl", "Name recorded in the import audit log")

	return cmd
}

func setPasswordCmd(flags *globalFlags) *cobra.Command {
	var user, password string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Overwrite the admin credentials and sign out every session",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(flags)
			if err != nil {
				return err
			}
			if err := services.Auth.ResetCredentials(context.Background(), user, password); err != nil {
				return err
			}
			fmt.Printf("Credentials updated for %s\n", user)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "admin", "Admin user name")
	cmd.Flags().StringVar(&password, "password", "", "New admin password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func sessionsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage persisted admin sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every persisted admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(flags)
			if err != nil {
				return err
			}
			if err := services.Auth.PurgeSessions(context.Background()); err != nil {
				return err
			}
			fmt.Println("All admin sessions removed")
			return nil
		},
	})

	return cmd
}

func auditCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Print the bulk import audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(flags)
			if err != nil {
				return err
			}
			entries, err := services.Moderation.AuditLog(context.Background())
			if err != nil {
				return err
			}
			return printJSON(entries)
		},
	}
}
