package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/TOTORON9625/DevTodo/internal/offline"
)

func newCacheCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and fill the offline cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "warm",
		Short: "Pre-cache every asset in the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Cache.Origin == "" {
				return errors.New("cache.origin is not configured")
			}
			ctrl, err := a.controller(cmd.Context())
			if err != nil {
				return err
			}
			if err := ctrl.Install(cmd.Context(), http.DefaultTransport.RoundTrip); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cached %d assets in %s\n", len(ctrl.Assets), ctrl.CacheName)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show cache generations and cached URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := a.cache.Entries(cmd.Context(), ctrl.CacheName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache %s: %d entries\n", ctrl.CacheName, len(entries))
			for _, e := range entries {
				fmt.Fprintf(out, "  %d  %s  %d bytes  %s\n",
					e.Status, e.URL, len(e.Body), e.StoredAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "fetch <url>",
		Short: "GET a URL through the offline cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hc, err := a.httpClient(cmd.Context())
			if err != nil {
				return err
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, args[0], nil)
			if err != nil {
				return err
			}
			resp, err := hc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			source := "network"
			switch {
			case offline.IsOfflineResponse(resp):
				source = "offline"
			case resp.Header.Get(offline.HeaderCached) != "":
				source = "cache"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s (%d bytes)\n", resp.StatusCode, source, len(body))
			return nil
		},
	})

	return cmd
}
