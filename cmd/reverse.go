package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var reverseCmd = &cobra.Command{
	Use:   "reverse <lat> <lon>",
	Short: "Resolve coordinates to an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Wrapf(err, "reverse: parse lat %q", args[0])
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrapf(err, "reverse: parse lon %q", args[1])
		}

		result, err := client.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			return err
		}

		fmt.Printf("display name: %s\n", result.DisplayName)
		if result.Address != "" {
			fmt.Printf("address:      %s\n", result.Address)
		}
		return nil
	},
}

func init() { rootCmd.AddCommand(reverseCmd) }
