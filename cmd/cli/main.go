package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/gobank/internal/adapter/http/dto"
	postgresRepo "github.com/iho/gobank/internal/adapter/repository/postgres"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/config"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/usecase"
)

var errInconsistent = errors.New("ledger is inconsistent")

type options struct {
	baseURL string
	token   string
	timeout time.Duration
	asJSON  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "gobank-cli",
		Short:         "GoBank CLI tool",
		Long:          `A command line interface for operating a GoBank deployment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the GoBank API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("GOBANK_TOKEN"), "Admin bearer token (defaults to $GOBANK_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print raw JSON")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(consistencyCmd(opts), reconcileCmd(opts))

	rootCmd.AddCommand(ledgerCmd, hashPasswordCmd(), migrateCmd(), createAdminCmd())
	return rootCmd
}

func consistencyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check that balances match their entries and transfers pair up",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ConsistencyResponse
			if err := getJSON(cmd.Context(), opts, "/api/v1/admin/ledger/consistency", &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				printJSON(out, report)
			} else {
				printConsistency(out, &report)
			}

			if !report.Consistent {
				return errInconsistent
			}
			return nil
		},
	}
}

func reconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "List accounts whose stored balance drifted from their entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ReconciliationResponse
			if err := getJSON(cmd.Context(), opts, "/api/v1/admin/reconciliation", &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				printJSON(out, report)
			} else {
				printReconciliation(out, &report)
			}

			if len(report.Discrepancies) > 0 {
				return errInconsistent
			}
			return nil
		},
	}
}

var bcryptGenerate = func(password []byte, _ int) ([]byte, error) {
	hash, err := usecase.HashPassword(string(password))
	return []byte(hash), err
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash suitable for the users table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), 0)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "Migrations directory (defaults to $MIGRATIONS_PATH)")

	run := func(fn func(*postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.MigrationsPath
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Output: cmd.ErrOrStderr()})
			return fn(postgres.NewMigrator(cfg.DatabaseURL, path, log))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  run(func(m *postgres.Migrator) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			RunE:  run(func(m *postgres.Migrator) error { return m.Down() }),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(func(m *postgres.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
					return nil
				})(cmd, args)
			},
		},
	)
	return cmd
}

func createAdminCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator login directly in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{DatabaseURL: cfg.DatabaseURL, MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			userUC := usecase.NewUserUseCase(postgresRepo.NewUserRepository(pool), postgresRepo.NewULIDGenerator())
			user, err := userUC.CreateUser(ctx, usecase.CreateUserInput{
				Email:    email,
				Name:     name,
				Password: password,
				Role:     domain.RoleAdmin,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func getJSON(ctx context.Context, opts *options, path string, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(opts.baseURL, "/")+path, nil)
	if err != nil {
		return err
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printConsistency(out io.Writer, r *dto.ConsistencyResponse) {
	if r.Consistent {
		fmt.Fprintf(out, "Consistency check PASSED at %s\n", r.CheckedAt.Format(time.RFC3339))
		return
	}

	fmt.Fprintf(out, "Consistency check FAILED at %s\n", r.CheckedAt.Format(time.RFC3339))
	if len(r.BalanceMismatches) > 0 {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ACCOUNT\tRECORDED\tCOMPUTED")
		for _, m := range r.BalanceMismatches {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", truncate(m.AccountID, 28), m.Recorded.Amount, m.Computed.Amount)
		}
		_ = tw.Flush()
	}
	for _, id := range r.BrokenTransfers {
		fmt.Fprintf(out, "broken transfer: %s\n", id)
	}
}

func printReconciliation(out io.Writer, r *dto.ReconciliationResponse) {
	fmt.Fprintf(out, "%d/%d accounts reconciled\n", r.ReconciledAccounts, r.TotalAccounts)
	if len(r.Discrepancies) == 0 {
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tRECORDED\tCALCULATED\tDIFFERENCE")
	for _, d := range r.Discrepancies {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", truncate(d.AccountID, 28), d.Recorded.Amount, d.Calculated.Amount, d.Difference.Amount)
	}
	_ = tw.Flush()
}

func printJSON(out io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "failed to encode: %v\n", err)
		return
	}
	fmt.Fprintln(out, string(data))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
