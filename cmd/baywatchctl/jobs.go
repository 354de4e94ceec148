package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Harsh-BH/baywatch/internal/domain"
)

func newJobsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage repair jobs",
	}
	cmd.AddCommand(
		newJobsListCmd(opts),
		newJobsHistoryCmd(opts),
		newJobsGetCmd(opts),
		newJobsCreateCmd(opts),
		newJobActionCmd(opts, "complete", "Complete a job and free its camera"),
		newJobActionCmd(opts, "release", "Free a job's camera without completing the job"),
		newJobsShareCmd(opts),
	)
	return cmd
}

func newJobsListCmd(opts *globalOptions) *cobra.Command {
	var (
		branchID int64
		status   string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List a branch's jobs",
		Example: `  baywatchctl jobs list --branch 1 --status in_progress`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := opts.client().ListJobs(cmd.Context(), branchID, status)
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}
			return opts.printJobs(cmd.OutOrStdout(), jobs)
		},
	}
	cmd.Flags().Int64Var(&branchID, "branch", 0, "Branch ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (in_progress, completed)")
	_ = cmd.MarkFlagRequired("branch")
	return cmd
}

func newJobsHistoryCmd(opts *globalOptions) *cobra.Command {
	var branchID int64
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List completed jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := opts.client().History(cmd.Context(), branchID)
			if err != nil {
				return fmt.Errorf("job history: %w", err)
			}
			return opts.printJobs(cmd.OutOrStdout(), jobs)
		},
	}
	cmd.Flags().Int64Var(&branchID, "branch", 0, "Branch ID (all branches when omitted)")
	return cmd
}

func newJobsGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			job, err := opts.client().GetJob(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get job: %w", err)
			}
			return opts.printJobs(cmd.OutOrStdout(), []domain.Job{*job})
		},
	}
}

func newJobsCreateCmd(opts *globalOptions) *cobra.Command {
	var (
		req      domain.CreateJobRequest
		cameraID int64
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Open a job, optionally assigning a camera",
		Example: `  baywatchctl jobs create --branch 1 --camera 4 --customer "Dana" --car "Corolla"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cameraID > 0 {
				req.CameraID = &cameraID
			}
			job, err := opts.client().CreateJob(cmd.Context(), &req)
			if err != nil {
				return fmt.Errorf("create job: %w", err)
			}
			return opts.printJobs(cmd.OutOrStdout(), []domain.Job{*job})
		},
	}
	cmd.Flags().Int64Var(&req.BranchID, "branch", 0, "Branch ID")
	cmd.Flags().Int64Var(&cameraID, "camera", 0, "Camera to assign")
	cmd.Flags().StringVar(&req.CustomerName, "customer", "", "Customer name")
	cmd.Flags().StringVar(&req.CustomerPhoneCountryCode, "phone-code", "", "Customer phone country code")
	cmd.Flags().StringVar(&req.CustomerPhoneNumber, "phone", "", "Customer phone number")
	cmd.Flags().StringVar(&req.CarModel, "car", "", "Car model")
	cmd.Flags().StringVar(&req.CarYear, "year", "", "Car year")
	cmd.Flags().StringVar(&req.IssueDescription, "issue", "", "Issue description")
	_ = cmd.MarkFlagRequired("branch")
	return cmd
}

func newJobActionCmd(opts *globalOptions, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <job-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			api := opts.client()
			out := cmd.OutOrStdout()

			if action == "release" {
				res, err := api.ReleaseJob(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("release job: %w", err)
				}
				if opts.jsonOutput {
					return writeJSON(out, res)
				}
				fmt.Fprintf(out, "Released camera %s from job %d\n", optionalID(res.CameraID), res.JobID)
				return nil
			}

			job, err := api.CompleteJob(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("complete job: %w", err)
			}
			if opts.jsonOutput {
				return writeJSON(out, job)
			}
			fmt.Fprintf(out, "Job %d completed\n", job.ID)
			return nil
		},
	}
}

func newJobsShareCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "share <job-id>",
		Short: "Issue a customer viewing link for a job's camera",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			share, err := opts.client().ShareJob(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("share job: %w", err)
			}
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, share)
			}
			base := strings.TrimRight(opts.v.GetString("url"), "/")
			fmt.Fprintf(out, "%s/api/v1/public%s\n", base, share.Path)
			fmt.Fprintf(out, "Expires %s\n", share.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
}

func (o *globalOptions) printJobs(out io.Writer, jobs []domain.Job) error {
	if o.jsonOutput {
		return writeJSON(out, jobs)
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tBRANCH\tCAMERA\tSTATUS\tCUSTOMER\tCAR\tENTERED")
	fmt.Fprintln(w, "--\t------\t------\t------\t--------\t---\t-------")
	for _, j := range jobs {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			j.ID,
			j.BranchID,
			optionalID(j.CameraID),
			j.Status,
			j.CustomerName,
			strings.TrimSpace(j.CarModel+" "+j.CarYear),
			j.EnteredAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func parseIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}
