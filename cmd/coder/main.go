package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/app"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/config"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/secrets"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "coder",
		Short:         "Map symptoms to ICD-11 codes and openFDA treatments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(icdCmd())
	rootCmd.AddCommand(treatmentsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// withApp loads configuration and builds the pipeline for a single command.
// Logs go to stderr so stdout carries only results.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	if _, err := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv()); err != nil {
		return fmt.Errorf("failed to load Vault secrets: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	observability.InitLoggerTo(os.Stderr, cfg.OTEL.ServiceName, cfg.Env)

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <symptom>...",
		Short: "Run the full coding pipeline",
		Long:  "Run the full coding pipeline. Each argument is one symptom; quote multi-word symptoms.",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			maxResults, _ := cmd.Flags().GetInt("max-results")

			return withApp(cmd.Context(), func(a *app.App) error {
				result, err := a.Pipeline.RunWithMax(cmd.Context(), args, maxResults)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Summary)
				return err
			})
		},
	}
	cmd.Flags().Bool("json", false, "Print the full result as JSON")
	cmd.Flags().Int("max-results", 0, "Treatments per condition (default from PIPELINE_MAX_RESULTS)")
	return cmd
}

func icdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icd <query>",
		Short: "Search ICD-11 codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxResults, _ := cmd.Flags().GetInt("max")
			query := strings.Join(args, " ")

			return withApp(cmd.Context(), func(a *app.App) error {
				hits, err := a.Terminology.Search(cmd.Context(), query, maxResults)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), hits)
			})
		},
	}
	cmd.Flags().Int("max", 5, "Maximum codes to return")
	return cmd
}

func treatmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treatments <condition>",
		Short: "Look up openFDA treatments for a condition",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, _ := cmd.Flags().GetString("code")
			maxResults, _ := cmd.Flags().GetInt("max")
			condition := strings.Join(args, " ")

			return withApp(cmd.Context(), func(a *app.App) error {
				result, err := a.Treatments.Lookup(cmd.Context(), condition, code, maxResults)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().String("code", "", "ICD-11 code to attach to the result")
	cmd.Flags().Int("max", 5, "Maximum treatments to return")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
