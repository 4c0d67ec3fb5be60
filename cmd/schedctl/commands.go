package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"clinicflow/pkg/client"
	"clinicflow/pkg/logger"
	"clinicflow/pkg/model"

	"github.com/spf13/cobra"
)

const (
	envAPIURL     = "CLINICFLOW_API_URL"
	defaultAPIURL = "http://localhost:8080"
)

type options struct {
	apiURL         string
	timeout        time.Duration
	provider       string
	idempotencyKey string
	asJSON         bool
	verbose        bool
}

func (o *options) client() *client.AppointmentsClient {
	return client.NewAppointmentsClient(o.apiURL, o.timeout)
}

func (o *options) logger() *logger.Logger {
	if !o.verbose {
		return logger.Discard()
	}
	return logger.New(logger.Config{Level: logger.DEBUG, Format: logger.TEXT, Output: os.Stderr, Service: "schedctl"})
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	apiURL := os.Getenv(envAPIURL)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	rootCmd := &cobra.Command{
		Use:          "schedctl",
		Short:        "Operate the clinic appointment schedule",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", apiURL, "appointments API base URL (env "+envAPIURL+")")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().StringVarP(&opts.provider, "provider", "p", "", "provider id; empty means the whole practice")
	rootCmd.PersistentFlags().StringVar(&opts.idempotencyKey, "idempotency-key", "", "key for write commands; reuse it to retry safely (default: random)")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(slotsCmd(opts))
	rootCmd.AddCommand(conflictsCmd(opts))
	rootCmd.AddCommand(resolveCmd(opts))
	rootCmd.AddCommand(bulkStatusCmd(opts))

	return rootCmd
}

func slotsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "slots DATE",
		Short: "Show the slot grid for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger()
			log.Debug("Fetching day schedule", "date", args[0], "provider_id", opts.provider)

			resp, err := opts.client().DaySchedule(cmd.Context(), args[0], opts.provider)
			if err != nil {
				return err
			}
			if err := checkResponse(resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printRaw(cmd.OutOrStdout(), resp)
			}

			schedule, err := client.DecodeData[model.DaySchedule](resp)
			if err != nil {
				return err
			}
			return printSlots(cmd.OutOrStdout(), &schedule)
		},
	}
}

func conflictsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts DATE",
		Short: "List overlapping appointments for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.logger().Debug("Fetching conflicts", "date", args[0], "provider_id", opts.provider)

			resp, err := opts.client().Conflicts(cmd.Context(), args[0], opts.provider)
			if err != nil {
				return err
			}
			if err := checkResponse(resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printRaw(cmd.OutOrStdout(), resp)
			}

			conflicts, err := client.DecodeData[[]model.ConflictRecord](resp)
			if err != nil {
				return err
			}
			return printConflicts(cmd.OutOrStdout(), conflicts)
		},
	}
}

func resolveCmd(opts *options) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "resolve DATE",
		Short: "Propose, or with --apply perform, moves that clear a day's conflicts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.logger().Debug("Resolving conflicts", "date", args[0], "provider_id", opts.provider, "apply", apply)

			resp, err := opts.client().Resolve(cmd.Context(), args[0], opts.provider, apply, opts.idempotencyKey)
			if err != nil {
				return err
			}
			if err := checkResponse(resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printRaw(cmd.OutOrStdout(), resp)
			}

			report, err := client.DecodeData[model.ResolutionReport](resp)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), &report)
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "apply the proposed moves")
	return cmd
}

func bulkStatusCmd(opts *options) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "bulk-status ID...",
		Short: "Set the status of several appointments at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if status == "" {
				return fmt.Errorf("--status is required")
			}
			opts.logger().Debug("Applying bulk status", "count", len(args), "status", status)

			resp, err := opts.client().BulkStatus(cmd.Context(), args, model.Status(status), opts.idempotencyKey)
			if err != nil {
				return err
			}
			if err := checkResponse(resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printRaw(cmd.OutOrStdout(), resp)
			}

			result, err := client.DecodeData[model.PartialResult](resp)
			if err != nil {
				return err
			}
			return printPartial(cmd.OutOrStdout(), &result)
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "target status (pending, confirmed, cancelled, completed, no-show)")
	return cmd
}

func checkResponse(resp *client.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, client.GetErrorMessage(resp))
}

func printRaw(w io.Writer, resp *client.Response) error {
	var v any
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSlots(w io.Writer, schedule *model.DaySchedule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s-%s\tevery %d min\n", schedule.Date, schedule.WorkStart, schedule.WorkEnd, schedule.IntervalMin)
	fmt.Fprintln(tw, "TIME\tSTATUS\tAPPOINTMENTS")
	for _, slot := range schedule.Slots {
		state := "free"
		if !slot.Available {
			state = "busy"
		}
		ids := make([]string, 0, len(slot.Appointments))
		for _, a := range slot.Appointments {
			ids = append(ids, a.ID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", slot.Time, state, strings.Join(ids, ","))
	}
	return tw.Flush()
}

func printConflicts(w io.Writer, conflicts []model.ConflictRecord) error {
	if len(conflicts) == 0 {
		_, err := fmt.Fprintln(w, "no conflicts")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tPROVIDER\tWINDOW\tAPPOINTMENTS")
	for _, c := range conflicts {
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\n", c.Kind, providerLabel(c.ProviderID), c.Start, c.End, strings.Join(c.AppointmentIDs, ","))
	}
	return tw.Flush()
}

func printReport(w io.Writer, report *model.ResolutionReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	mode := "proposed"
	if report.Applied {
		mode = "applied"
	}
	fmt.Fprintf(tw, "%s\t%d conflicts\t%d moves %s\t%d unresolved\t%d remaining\n",
		report.Date, len(report.Conflicts), len(report.Moves), mode, len(report.Unresolved), len(report.Remaining))
	for _, m := range report.Moves {
		fmt.Fprintf(tw, "move\t%s\t%s\t%s -> %s\n", m.AppointmentID, providerLabel(m.ProviderID), m.FromTime, m.ToTime)
	}
	for _, u := range report.Unresolved {
		fmt.Fprintf(tw, "unresolved\t%s\t%s\t%s (%s)\n", u.AppointmentID, providerLabel(u.ProviderID), u.Time, u.Reason)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(tw, "failed\t%s\t%s\t%s\n", f.ID, f.Code, f.Message)
	}
	return tw.Flush()
}

func printPartial(w io.Writer, result *model.PartialResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, id := range result.Succeeded {
		fmt.Fprintf(tw, "ok\t%s\n", id)
	}
	for _, f := range result.Failed {
		fmt.Fprintf(tw, "failed\t%s\t%s\t%s\n", f.ID, f.Code, f.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d succeeded, %d failed\n", len(result.Succeeded), len(result.Failed))
	if len(result.Failed) > 0 {
		fmt.Fprintf(w, "retry: %s\n", strings.Join(result.FailedIDs(), " "))
	}
	return nil
}

func providerLabel(id string) string {
	if id == "" {
		return "unassigned"
	}
	return id
}
