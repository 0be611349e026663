// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

// Package main is the tessellatus command line interface.
//
// Tessellatus exposes Sentinel Hub imagery as a virtual, lazily-evaluated
// Zarr v2 store. The CLI covers the exploratory workflow around it:
//
//	tessellatus datasets              # list available datasets
//	tessellatus bands S2L2A           # list a dataset's bands
//	tessellatus collections           # list catalog collections
//	tessellatus token                 # introspect the OAuth2 token
//	tessellatus describe              # summarize the configured cube
//	tessellatus fetch B04/0.0.0 -o c  # resolve one chunk to a file
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables (SH_CLIENT_ID, SH_CLIENT_SECRET,
// CUBE_DATASET, ...), a YAML config file (--config or TESSELLATUS_CONFIG),
// and built-in defaults. An optional Prometheus listener is enabled with
// METRICS_ENABLED=true.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/tessellatus/internal/chunkstore"
	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/logging"
	"github.com/tomtom215/tessellatus/internal/metrics"
	"github.com/tomtom215/tessellatus/internal/sentinelhub"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "tessellatus",
	Short:         "Virtual Zarr data cubes from Sentinel Hub imagery",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cfgFile != "" {
			if err := os.Setenv(config.ConfigPathEnvVar, cfgFile); err != nil {
				return err
			}
		}
		var err error
		cfg, err = config.LoadWithKoanf()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Caller: cfg.Logging.Caller,
		})
		if cfg.Metrics.Enabled {
			go func() {
				if err := metrics.Serve(cmd.Context(), cfg.Metrics.Addr); err != nil {
					logging.Error().Err(err).Msg("metrics listener failed")
				}
			}()
		}
		return nil
	},
}

func newClient() (*sentinelhub.Client, error) {
	return sentinelhub.NewClient(cfg.Client)
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets the configured instance offers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		datasets, err := client.Datasets(cmd.Context())
		if err != nil {
			return err
		}
		for _, ds := range datasets {
			title := ds.Name
			if meta, ok := sentinelhub.DatasetMetadata(ds.ID); ok {
				title = meta.Title
			}
			fmt.Printf("%-12s %s\n", ds.ID, title)
		}
		return nil
	},
}

var bandsCmd = &cobra.Command{
	Use:   "bands <dataset>",
	Short: "List a dataset's bands with their known metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		bands, err := client.Bands(cmd.Context(), args[0], cfg.Cube.CollectionID)
		if err != nil {
			return err
		}
		for _, band := range bands {
			line := fmt.Sprintf("%-18s %-8s", band.Name, band.SampleType)
			if band.Units != "" {
				line += " " + band.Units
			}
			if band.WavelengthNanometers > 0 {
				line += fmt.Sprintf(" %gnm", band.WavelengthNanometers)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the catalog's collections",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		collections, err := client.Collections(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range collections {
			fmt.Printf("%-24s %s\n", c.ID, c.Title)
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Introspect the OAuth2 access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		info, err := client.TokenInfo(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("subject:   %s\n", info.Subject)
		fmt.Printf("client_id: %s\n", info.ClientID)
		if info.Email != "" {
			fmt.Printf("email:     %s\n", info.Email)
		}
		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Summarize the configured cube: grid, time slices, variables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		cube := store.Cube()
		ranges := store.TimeRanges()

		fmt.Printf("dataset:      %s\n", cube.Dataset)
		if cube.CollectionID != "" {
			fmt.Printf("collection:   %s\n", cube.CollectionID)
		}
		fmt.Printf("crs:          %s\n", cube.CRS)
		fmt.Printf("bbox:         %s\n", cube.BBox)
		fmt.Printf("size:         %d x %d pixels (%d x %d tiles of %d x %d)\n",
			cube.Width, cube.Height, cube.NumTilesX(), cube.NumTilesY(),
			cube.TileWidth, cube.TileHeight)
		fmt.Printf("time slices:  %d (%s to %s)\n", len(ranges),
			ranges[0].Start.Format("2006-01-02"),
			ranges[len(ranges)-1].End.Format("2006-01-02"))
		fmt.Printf("manifest:     %d keys\n", store.Len())
		fmt.Println("variables:")
		variables := cube.Bands
		if cube.FourD {
			variables = []string{chunkstore.BandDataArrayName}
		}
		for _, name := range variables {
			size, err := store.GetSize(name + "/0.0.0")
			if cube.FourD {
				size, err = store.GetSize(name + "/0.0.0.0")
			}
			if err != nil {
				return err
			}
			fmt.Printf("  %-18s chunk %d bytes\n", name, size)
		}
		return nil
	},
}

var fetchOutput string

var fetchCmd = &cobra.Command{
	Use:   "fetch <chunk-key>",
	Short: "Resolve one chunk (e.g. B04/0.0.0) and write its bytes to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		data, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if fetchOutput == "" || fetchOutput == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(fetchOutput, data, 0o600); err != nil {
			return err
		}
		logging.Info().Str("key", args[0]).Int("bytes", len(data)).
			Str("file", fetchOutput).Msg("chunk written")
		return nil
	},
}

// openStore builds the virtual store for the configured cube. Chunk
// fetch telemetry goes to the log and to Prometheus.
func openStore(ctx context.Context) (*chunkstore.Store, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	cube, err := config.NewCube(cfg.Cube)
	if err != nil {
		return nil, err
	}
	return chunkstore.New(ctx, client, cube,
		chunkstore.WithObserver(chunkstore.LogObserver{}),
		chunkstore.WithObserver(chunkstore.MetricsObserver{}))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(datasetsCmd, bandsCmd, collectionsCmd, tokenCmd, describeCmd, fetchCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
