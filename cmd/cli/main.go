package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/reconledger/internal/infrastructure/config"
	"github.com/iho/reconledger/internal/infrastructure/logger"
	"github.com/iho/reconledger/internal/infrastructure/postgres"
)

type options struct {
	baseURL string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "reconledger",
		Short:        "Reconciliation ledger CLI",
		Long:         `A command line interface for reconciling statements against the ledger.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newReconcileCmd(opts),
		newResolveCmd(opts, "confirm", "Confirm a tentative match"),
		newResolveCmd(opts, "reject", "Reject a tentative match"),
		newReportCmd(opts),
		newSnapshotsCmd(opts),
		newConsistencyCmd(opts),
		newMigrateCmd(),
	)
	return rootCmd
}

func newReconcileCmd(opts *options) *cobra.Command {
	var (
		owner, instrument, from, to string
		format, idempotencyKey      string
	)

	cmd := &cobra.Command{
		Use:   "reconcile <statement-file>",
		Short: "Reconcile a CSV or JSON statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if format == "" {
				format = formatFromPath(args[0])
			}

			headers := map[string]string{}
			if idempotencyKey != "" {
				headers["Idempotency-Key"] = idempotencyKey
			}

			client := newAPIClient(opts.baseURL, opts.timeout)
			body, err := client.do(cmd.Context(), request{
				method: http.MethodPost,
				path:   "/api/v1/reconciliations/document",
				query: url.Values{
					"owner":      {owner},
					"instrument": {instrument},
					"from":       {from},
					"to":         {to},
					"format":     {format},
				},
				body:        raw,
				contentType: contentTypeFor(format),
				headers:     headers,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner ID")
	cmd.Flags().StringVar(&instrument, "instrument", "", "Instrument ID")
	cmd.Flags().StringVar(&from, "from", "", "Period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Period end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&format, "format", "", "Statement format (csv or json); inferred from the file extension when empty")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for the submission")
	for _, name := range []string{"owner", "instrument", "from", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newResolveCmd(opts *options, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <match-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts.baseURL, opts.timeout)
			body, err := client.do(cmd.Context(), request{
				method: http.MethodPost,
				path:   "/api/v1/matches/" + url.PathEscape(args[0]) + "/" + action,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}
}

func newReportCmd(opts *options) *cobra.Command {
	var instrument string
	var limit int

	cmd := &cobra.Command{
		Use:   "report [report-id]",
		Short: "Show a reconciliation report, or list an instrument's reports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request{method: http.MethodGet}
			switch {
			case len(args) == 1:
				req.path = "/api/v1/reconciliations/" + url.PathEscape(args[0])
			case instrument != "":
				req.path = "/api/v1/instruments/" + url.PathEscape(instrument) + "/reconciliations"
				req.query = url.Values{"limit": {strconv.Itoa(limit)}}
			default:
				return errors.New("either a report id or --instrument is required")
			}

			body, err := newAPIClient(opts.baseURL, opts.timeout).do(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().StringVar(&instrument, "instrument", "", "List reports of this instrument")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum reports to list")
	return cmd
}

func newSnapshotsCmd(opts *options) *cobra.Command {
	var (
		latest  bool
		trigger string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "snapshots <owner-id>",
		Short: "List patrimony snapshots, or append one with --trigger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := "/api/v1/owners/" + url.PathEscape(args[0]) + "/snapshots"
			req := request{method: http.MethodGet, path: base, query: url.Values{"limit": {strconv.Itoa(limit)}}}
			switch {
			case trigger != "":
				payload, err := json.Marshal(map[string]string{"trigger": trigger})
				if err != nil {
					return err
				}
				req = request{method: http.MethodPost, path: base, body: payload, contentType: "application/json"}
			case latest:
				req = request{method: http.MethodGet, path: base + "/latest"}
			}

			body, err := newAPIClient(opts.baseURL, opts.timeout).do(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "Show only the latest snapshot")
	cmd.Flags().StringVar(&trigger, "trigger", "", "Append a snapshot (manual, periodic or baseline)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum snapshots to list")
	return cmd
}

func newConsistencyCmd(opts *options) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency for an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := newAPIClient(opts.baseURL, opts.timeout).do(cmd.Context(), request{
				method: http.MethodGet,
				path:   "/api/v1/ledger/consistency",
				query:  url.Values{"owner": {owner}},
			})

			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
				if perr := printJSON(cmd.OutOrStdout(), apiErr.Body); perr != nil {
					return perr
				}
				return errors.New("consistency check FAILED")
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner ID")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or roll back database migrations using DATABASE_URL",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Output: cmd.ErrOrStderr()})

			switch args[0] {
			case "up":
				return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log)
			case "down":
				return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, log)
			default:
				return fmt.Errorf("unknown direction %q", args[0])
			}
		},
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "csv"
	}
}

func contentTypeFor(format string) string {
	if format == "json" {
		return "application/json"
	}
	return "text/csv"
}

// printJSON indents a JSON body onto out. Bodies that are not JSON are
// written as-is.
func printJSON(out io.Writer, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		_, werr := out.Write(body)
		return werr
	}
	buf.WriteByte('\n')
	_, err := out.Write(buf.Bytes())
	return err
}
