package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diagnosis/travel-reservations/pkg/manifest"
	"github.com/diagnosis/travel-reservations/pkg/workflow"
)

func newWorkflowCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflow",
		Aliases: []string{"wf"},
		Short:   "Run and validate reservation workflows",
	}
	cmd.AddCommand(newWorkflowRunCmd(opts), newWorkflowValidateCmd())
	return cmd
}

func newWorkflowRunCmd(opts *options) *cobra.Command {
	var maxSteps int

	cmd := &cobra.Command{
		Use:   "run <file.yaml>",
		Short: "Run a workflow against the reservation service",
		Long: `Run a workflow against the reservation service

Function nodes may call greet, uppercase, listFlights, listHotels,
reserveFlight, reserveHotel, cancelFlight and cancelHotel. HTTP nodes
are simulated unless they set "simulate: false".
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := workflow.Load(args[0])
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			runnerOpts := []workflow.Option{
				workflow.WithFunctions(workflow.ReservationFunctions(c)),
				workflow.WithMaxSteps(maxSteps),
			}
			if !opts.quiet && !opts.jsonOutput {
				runnerOpts = append(runnerOpts, workflow.WithOutput(out))
			}

			vars, err := workflow.NewRunner(runnerOpts...).Run(cmd.Context(), wf)
			if err != nil {
				return fmt.Errorf("workflow failed: %w", err)
			}

			if opts.jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(vars)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSteps, "max-steps", workflow.DefaultMaxSteps, "Abort after this many steps")
	return cmd
}

func newWorkflowValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <dir|file>...",
		Aliases: []string{"lint"},
		Short:   "Validate workflow manifests",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			files, err := manifest.Collect(args...)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "no YAML files found")
				return nil
			}

			total := 0
			for _, path := range files {
				fmt.Fprintf(out, "-- validating %s --\n", path)
				report := manifest.ValidateFile(path)
				total += report.Count()
				if report.Err != nil {
					fmt.Fprintf(out, " ERROR: %v\n", report.Err)
					continue
				}
				for i, problems := range report.Problems {
					if len(problems) == 0 {
						fmt.Fprintf(out, " document[%d] OK\n", i)
						continue
					}
					fmt.Fprintf(out, " document[%d] has %d problem(s):\n", i, len(problems))
					for _, p := range problems {
						fmt.Fprintf(out, "  - %s\n", p)
					}
				}
			}

			if total > 0 {
				return fmt.Errorf("validation finished: %d problem(s) found", total)
			}
			fmt.Fprintln(out, "validation finished: no errors")
			return nil
		},
	}
}

