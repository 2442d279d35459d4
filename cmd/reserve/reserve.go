package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diagnosis/travel-reservations/pkg/client"
)

const defaultURL = "http://localhost:8080"

type options struct {
	url        string
	jsonOutput bool
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{url: os.Getenv("RESERVE_URL")}
	if opts.url == "" {
		opts.url = defaultURL
	}

	root := &cobra.Command{
		Use:   "reserve",
		Short: "Reserve or cancel flights and hotels",
		Long: `Reserve or cancel flights and hotels

environment:
    RESERVE_URL    URL for reservation service
                   RESERVE_URL_VALUE
`,
		SilenceUsage: true,
	}
	root.Long = strings.ReplaceAll(root.Long, "RESERVE_URL_VALUE", opts.url)

	root.PersistentFlags().StringVar(&opts.url, "url", opts.url, "URL for reservation service")
	root.PersistentFlags().BoolVarP(&opts.jsonOutput, "json", "j", false, "JSON output")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Don't display header")

	root.AddCommand(newFlightsCmd(opts), newHotelsCmd(opts), newWorkflowCmd(opts))
	return root
}

func (o *options) client() (*client.Client, error) {
	if o.url == "" {
		return nil, fmt.Errorf("service URL not set")
	}
	return client.New(o.url)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printMessage(w io.Writer, msg string) {
	fmt.Fprintln(w, msg)
}
