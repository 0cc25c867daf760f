package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clinicmap/geosearch/internal/config"
	"github.com/clinicmap/geosearch/pkg/geocode"
)

var (
	cfg    *config.Config
	client *geocode.Client
)

var rootCmd = &cobra.Command{
	Use:   "geosearch",
	Short: "Geocoding and proximity search",
	Long:  "Resolves addresses to coordinates, coordinates to addresses, and finds points of interest near a location via external geocoding providers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		client = geocode.NewClient(
			geocode.WithGeoapifyAPIKey(cfg.Geoapify.Key),
			geocode.WithNominatimBaseURL(cfg.Nominatim.BaseURL),
			geocode.WithGeoapifyBaseURL(cfg.Geoapify.BaseURL),
			geocode.WithUserAgent(cfg.Nominatim.UserAgent),
			geocode.WithRateInterval(time.Duration(cfg.Nominatim.RateIntervalMs)*time.Millisecond),
			geocode.WithTimeouts(
				time.Duration(cfg.Nominatim.TimeoutSecs)*time.Second,
				time.Duration(cfg.Geoapify.TimeoutSecs)*time.Second,
			),
			geocode.WithBatchConcurrency(cfg.Search.BatchConcurrency),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
