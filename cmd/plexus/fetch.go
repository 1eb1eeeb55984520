package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/plexusviz/plexus"
)

func fetchCmd() *cobra.Command {
	var (
		configPath string
		outputPath string
		timeoutSec int
	)

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a graph from a reconstruction service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			client := plexus.NewClient()
			if timeoutSec > 0 {
				client.Timeout = time.Duration(timeoutSec) * time.Second
			} else if t := cfg.fetchTimeout(); t > 0 {
				client.Timeout = t
			}

			start := time.Now()
			data, err := client.FetchRaw(cmd.Context(), args[0], cfg.fetchConfig())
			if err != nil {
				return describeFetchError(err, args[0])
			}
			g, notes, err := plexus.Parse(data)
			if err != nil {
				return describeFetchError(errors.Mark(err, plexus.ErrParse), args[0])
			}
			reportNotes(notes)

			if outputPath != "" {
				if err := os.WriteFile(outputPath, data, 0o644); err != nil {
					return fmt.Errorf("write graph: %w", err)
				}
				logger.Info("graph written", "path", outputPath, "bytes", len(data))
			}

			layers := make(map[int]int)
			kinds := make(map[string]int)
			for _, n := range g.Nodes {
				kinds[n.Kind.String()]++
				if n.HasLayer {
					layers[n.Layer]++
				}
			}
			logger.Info("graph fetched", "url", args[0], "elapsed", time.Since(start).Round(time.Millisecond))
			logger.Info("graph summary", "nodes", len(g.Nodes), "edges", len(g.Edges), "layers", len(layers))
			for kind, count := range kinds {
				logger.Debug("node kind", "kind", kind, "count", count)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the raw payload to this file")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 0, "request timeout in seconds")
	return cmd
}

// describeFetchError turns the client's categorized errors into actionable
// messages.
func describeFetchError(err error, url string) error {
	switch {
	case errors.Is(err, plexus.ErrTimeout):
		return fmt.Errorf("the service at %s did not answer in time; retry or raise --timeout: %w", url, err)
	case errors.Is(err, plexus.ErrUnreachable):
		return fmt.Errorf("could not reach %s; check the URL and your network: %w", url, err)
	case errors.Is(err, plexus.ErrHTTPStatus):
		return fmt.Errorf("the service at %s rejected the request: %w", url, err)
	case errors.Is(err, plexus.ErrParse):
		return fmt.Errorf("the service at %s returned a payload that is not a graph: %w", url, err)
	default:
		return err
	}
}
