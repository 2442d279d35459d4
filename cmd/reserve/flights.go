package main

import (
	"fmt"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFlightsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "flights",
		Aliases: []string{"flight"},
		Short:   "Flight reservations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List available flights",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.client()
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printRaw(cmd, c, http.MethodGet, "flights")
				}

				flights, err := c.ListFlights(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
				if !opts.quiet {
					fmt.Fprintln(tw, "FLIGHT\tFROM\tTO")
				}
				for _, f := range flights {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", f.FlightNumber, f.From, f.To)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "book",
			Short: "Reserve a flight",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.client()
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printRaw(cmd, c, http.MethodPost, "flights")
				}
				msg, err := c.ReserveFlight(cmd.Context())
				if err != nil {
					return err
				}
				printMessage(cmd.OutOrStdout(), msg.Message)
				return nil
			},
		},
		&cobra.Command{
			Use:     "cancel <id>",
			Aliases: []string{"rm"},
			Short:   "Cancel a flight reservation",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.client()
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printRaw(cmd, c, http.MethodDelete, "flights/"+url.PathEscape(args[0]))
				}
				msg, err := c.CancelFlight(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printMessage(cmd.OutOrStdout(), msg.Message)
				return nil
			},
		},
	)
	return cmd
}
