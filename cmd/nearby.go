package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/clinicmap/geosearch/pkg/geocode"
)

var (
	nearbyQuery      string
	nearbyCategories []string
	nearbyRadiusKm   float64
	nearbyLimit      int
)

var nearbyCmd = &cobra.Command{
	Use:   "nearby <lat> <lon>",
	Short: "Find places near a location",
	Long:  "Search for points of interest around a coordinate pair, by category tags or by free-text query.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Wrapf(err, "nearby: parse lat %q", args[0])
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrapf(err, "nearby: parse lon %q", args[1])
		}
		if nearbyQuery == "" && len(nearbyCategories) == 0 {
			return eris.New("nearby: either --query or --categories is required")
		}

		var places []geocode.PlaceSearchResult
		if len(nearbyCategories) > 0 {
			places, err = client.SearchPlacesByTags(ctx, lat, lon, nearbyCategories, nearbyRadiusKm, nearbyLimit)
		} else {
			places, err = client.SearchPlacesNearby(ctx, lat, lon, nearbyQuery, nearbyRadiusKm, nearbyLimit)
		}
		if err != nil {
			return err
		}

		if len(places) == 0 {
			fmt.Println("no places found")
			return nil
		}
		for _, p := range places {
			dist := client.Distance(lat, lon, p.Latitude, p.Longitude)
			fmt.Printf("%-40s %6.2f km  (%.5f, %.5f)  %s\n", p.Name, dist, p.Latitude, p.Longitude, p.PlaceID)
		}
		return nil
	},
}

func init() {
	nearbyCmd.Flags().StringVar(&nearbyQuery, "query", "", "free-text search query")
	nearbyCmd.Flags().StringSliceVar(&nearbyCategories, "categories", nil, "category tags (comma-separated)")
	nearbyCmd.Flags().Float64Var(&nearbyRadiusKm, "radius", 0, "search radius in km (default 10)")
	nearbyCmd.Flags().IntVar(&nearbyLimit, "limit", 0, "max results (default 50 for categories, 20 for query)")
	rootCmd.AddCommand(nearbyCmd)
}
