package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/HutchE92/handover/internal/config"
	"github.com/HutchE92/handover/internal/platform/db"
	"github.com/HutchE92/handover/internal/platform/sandbox"
	"github.com/HutchE92/handover/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "handover-server",
		Short: "Ward nursing handover API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(healthcheckCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the handover API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetInt("to")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageBackend != config.BackendPostgres {
				return fmt.Errorf("migrations only apply to the %s backend", config.BackendPostgres)
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Running migrations on schema: %s\n", cfg.DBSchema)
			count, err := db.NewMigrator(pool, migrations.FS).UpTo(ctx, cfg.DBSchema, target)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().Int("to", 0, "Stop after this version (0 applies everything)")
	cmd.AddCommand(upCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageBackend != config.BackendPostgres {
				return fmt.Errorf("migrations only apply to the %s backend", config.BackendPostgres)
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx, cfg.DBSchema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", cfg.DBSchema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo ward dataset into the key-value store",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			seed, _ := cmd.Flags().GetInt64("seed")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageBackend != config.BackendRedis {
				return fmt.Errorf("demo data can only be seeded into the %s backend", config.BackendRedis)
			}

			ctx := newLogger(cfg).WithContext(context.Background())
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			seedCfg := sandbox.DefaultSeedConfig()
			seedCfg.Seed = seed
			res, err := sandbox.NewSeeder(b.store, seedCfg).Seed(ctx, force)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Println("Store already initialized, nothing to do. Use --force to reseed.")
				return nil
			}
			fmt.Printf("Seeded %d patients, %d handover notes, %d review entries.\n",
				res.Patients, res.HandoverNotes, res.ReviewEntries)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Wipe the store and reseed")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks one)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a ward handover sheet to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ward, _ := cmd.Flags().GetString("ward")
			out, _ := cmd.Flags().GetString("out")
			upload, _ := cmd.Flags().GetBool("archive")
			if strings.TrimSpace(ward) == "" {
				return fmt.Errorf("--ward is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := newLogger(cfg).WithContext(context.Background())
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			svcs, err := newServices(ctx, cfg, b)
			if err != nil {
				return err
			}
			defer svcs.close()

			data, filename, err := svcs.board.WardSheet(ctx, ward)
			if err != nil {
				return err
			}
			path := filepath.Join(out, filename)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Printf("Wrote %s\n", path)

			if upload {
				location, err := svcs.board.ArchiveWardSheet(ctx, ward)
				if err != nil {
					return fmt.Errorf("archive sheet: %w", err)
				}
				fmt.Printf("Archived to %s\n", location)
			}
			return nil
		},
	}
	cmd.Flags().String("ward", "", "Ward name, e.g. \"Ward 7\"")
	cmd.Flags().String("out", ".", "Output directory")
	cmd.Flags().Bool("archive", false, "Also upload the sheet to the archive bucket")
	return cmd
}

func healthcheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running server's health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			status, err := probeHealth(url, timeout)
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}
	cmd.Flags().String("url", "http://localhost:8000", "Server base URL")
	cmd.Flags().Duration("timeout", 5*time.Second, "Request timeout")
	return cmd
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// probeHealth calls /health/store on baseURL and returns the reported status.
func probeHealth(baseURL string, timeout time.Duration) (string, error) {
	var body healthResponse
	resp, err := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json").
		R().
		SetResult(&body).
		SetError(&body).
		Get("/health/store")
	if err != nil {
		return "", fmt.Errorf("health request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("server unhealthy: %d %s (%s backend)", resp.StatusCode(), body.Status, body.Backend)
	}
	return fmt.Sprintf("%s (%s backend)", body.Status, body.Backend), nil
}
