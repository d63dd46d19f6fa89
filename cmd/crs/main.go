package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raderre/cresite/internal/client"
	"github.com/raderre/cresite/internal/ui"
)

var (
	httpURL    string
	grpcAddr   string
	authToken  string
	jsonOutput bool
	noColor    bool

	listingsClient *client.HTTPClient
)

func defaultHTTPURL() string {
	return firstNonEmpty(os.Getenv("CRESITE_URL"), activeRemote().URL, "http://localhost:8080")
}

func defaultGRPCAddr() string {
	return firstNonEmpty(os.Getenv("CRESITE_SERVER"), activeRemote().GRPCAddr, "localhost:9090")
}

func defaultToken() string {
	return firstNonEmpty(os.Getenv("CRESITE_TOKEN"), activeRemote().Token)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// skipClient overrides the root PersistentPreRunE for commands that never
// talk to a running server.
func skipClient(*cobra.Command, []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:           "crs <command>",
	Short:         "CLI for the commercial real estate listings service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		listingsClient = client.NewHTTPClient(httpURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if listingsClient != nil {
			listingsClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "url", defaultHTTPURL(), "server base URL")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "server", defaultGRPCAddr(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "admin bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	cobra.OnInitialize(func() {
		if noColor {
			ui.ForceNoColor()
		}
	})

	rootCmd.AddGroup(
		&cobra.Group{ID: "listings", Title: "Listings:"},
		&cobra.Group{ID: "live", Title: "Live:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Listings
	rootCmd.AddCommand(propertyCmd)
	rootCmd.AddCommand(blogCmd)

	// Live
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(footerCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
