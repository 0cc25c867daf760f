package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/clinicmap/geosearch/pkg/geo"
)

var distanceCmd = &cobra.Command{
	Use:   "distance <lat1> <lon1> <lat2> <lon2>",
	Short: "Great-circle distance between two points",
	Args:  cobra.ExactArgs(4),
	RunE: func(_ *cobra.Command, args []string) error {
		coords := make([]float64, 4)
		for i, arg := range args {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return eris.Wrapf(err, "distance: parse coordinate %q", arg)
			}
			coords[i] = v
		}

		fmt.Printf("%.2f km\n", geo.DistanceKm(coords[0], coords[1], coords[2], coords[3]))
		return nil
	},
}

func init() { rootCmd.AddCommand(distanceCmd) }
