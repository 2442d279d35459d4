package main

import (
	"fmt"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diagnosis/travel-reservations/pkg/client"
)

func newHotelsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hotels",
		Aliases: []string{"hotel"},
		Short:   "Hotel reservations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List available hotels",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.client()
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printRaw(cmd, c, http.MethodGet, "hotels")
				}

				hotels, err := c.ListHotels(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
				if !opts.quiet {
					fmt.Fprintln(tw, "HOTEL\tLOCATION")
				}
				for _, h := range hotels {
					fmt.Fprintf(tw, "%s\t%s\n", h.HotelName, h.Location)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "book",
			Short: "Reserve a hotel",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.client()
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printRaw(cmd, c, http.MethodPost, "hotels")
				}
				msg, err := c.ReserveHotel(cmd.Context())
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
			Short:   "Cancel a hotel reservation",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.client()
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printRaw(cmd, c, http.MethodDelete, "hotels/"+url.PathEscape(args[0]))
				}
				msg, err := c.CancelHotel(cmd.Context(), args[0])
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

func printRaw(cmd *cobra.Command, c *client.Client, method, path string) error {
	body, err := c.Raw(cmd.Context(), method, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}
