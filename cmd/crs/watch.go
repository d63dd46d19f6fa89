package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/raderre/cresite/internal/client"
	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/feed"
	"github.com/raderre/cresite/internal/model"
	"github.com/raderre/cresite/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Follow the featured properties live",
	GroupID: "live",
	Long: `Loads the featured list, then prepends every featured property as it is
received. Events come from NATS when a NATS URL is known (--nats, the
CRESITE_NATS_URL variable or the active remote), otherwise from the
server's SSE stream. --via grpc uses the gRPC WatchFeatured stream.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		via, _ := cmd.Flags().GetString("via")
		natsURL, _ := cmd.Flags().GetString("nats")
		limit, _ := cmd.Flags().GetInt("limit")
		once, _ := cmd.Flags().GetBool("once")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		f, closeFn, err := newWatchFeed(via, natsURL, limit)
		if err != nil {
			return err
		}
		defer closeFn()
		defer f.Close()

		out := cmd.OutOrStdout()
		f.InitialLoad(ctx)
		if once {
			return renderFeed(out, f.Snapshot(), jsonOutput)
		}

		var mu sync.Mutex
		f.OnChange(func(snap []*model.Property) {
			mu.Lock()
			defer mu.Unlock()
			_ = renderFeed(out, snap, jsonOutput)
		})
		if err := renderFeed(out, f.Snapshot(), jsonOutput); err != nil {
			return err
		}
		return f.Run(ctx)
	},
}

// newWatchFeed picks the source and insert stream for via. closeFn
// releases the underlying connections.
func newWatchFeed(via, natsURL string, limit int) (*feed.Feed, func(), error) {
	natsURL = firstNonEmpty(natsURL, os.Getenv("CRESITE_NATS_URL"), activeRemote().NATSURL)
	if via == "" || via == "auto" {
		via = "sse"
		if natsURL != "" {
			via = "nats"
		}
	}

	switch via {
	case "nats":
		if natsURL == "" {
			return nil, nil, fmt.Errorf("--via nats needs a NATS URL (--nats or CRESITE_NATS_URL)")
		}
		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				fmt.Fprintf(os.Stderr, "nats: disconnected: %v\n", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				fmt.Fprintln(os.Stderr, "nats: reconnected")
			}),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to NATS: %w", err)
		}
		return feed.New(listingsClient, sub, limit), func() { sub.Close() }, nil
	case "sse":
		sub := client.NewSSESubscriber(httpURL)
		return feed.New(listingsClient, sub, limit), func() { sub.Close() }, nil
	case "grpc":
		gc, err := client.NewGRPCClient(grpcAddr, authToken)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to %s: %w", grpcAddr, err)
		}
		return feed.New(gc, gc, limit), func() { gc.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown --via %q (must be auto, nats, sse or grpc)", via)
	}
}

func renderFeed(w io.Writer, snap []*model.Property, asJSON bool) error {
	if asJSON {
		return printJSON(w, snap)
	}
	fmt.Fprintf(w, "%s %s\n", ui.RenderAccent("Featured Properties"),
		ui.RenderMuted(time.Now().Format("15:04:05")))
	printFeatured(w, snap)
	fmt.Fprintln(w)
	return nil
}

func init() {
	watchCmd.Flags().String("via", "auto", "event source: auto, nats, sse or grpc")
	watchCmd.Flags().String("nats", "", "NATS URL (overrides CRESITE_NATS_URL and the active remote)")
	watchCmd.Flags().Int("limit", feed.DefaultLimit, "number of properties to keep")
	watchCmd.Flags().Bool("once", false, "print the current list and exit")
}
