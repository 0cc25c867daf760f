package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clinicmap/geosearch/pkg/geocode"
)

var (
	geocodeCity   string
	geocodeState  string
	geocodePostal string
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve an address to coordinates",
	Long:  "Geocode a free-text address, optionally narrowed by city, state, and postal code.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		result, err := client.Geocode(ctx, geocode.AddressInput{
			Address:    strings.Join(args, " "),
			City:       geocodeCity,
			State:      geocodeState,
			PostalCode: geocodePostal,
		})
		if err != nil {
			return err
		}

		fmt.Printf("latitude:     %.7f\n", result.Latitude)
		fmt.Printf("longitude:    %.7f\n", result.Longitude)
		if result.DisplayName != "" {
			fmt.Printf("display name: %s\n", result.DisplayName)
		}
		return nil
	},
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeCity, "city", "", "city to narrow the search")
	geocodeCmd.Flags().StringVar(&geocodeState, "state", "", "state to narrow the search")
	geocodeCmd.Flags().StringVar(&geocodePostal, "postal-code", "", "postal code to narrow the search")
	rootCmd.AddCommand(geocodeCmd)
}
