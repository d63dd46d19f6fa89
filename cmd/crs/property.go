package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raderre/cresite/internal/client"
)

var propertyCmd = &cobra.Command{
	Use:     "property",
	Aliases: []string{"prop"},
	Short:   "Manage property listings",
	GroupID: "listings",
}

var propertyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List properties",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		types, _ := cmd.Flags().GetStringSlice("type")
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		req := &client.ListPropertiesRequest{
			Type:   types,
			Search: search,
			Sort:   sort,
			Limit:  limit,
			Offset: offset,
		}
		if cmd.Flags().Changed("featured") {
			featured, _ := cmd.Flags().GetBool("featured")
			req.Featured = &featured
		}

		resp, err := listingsClient.ListProperties(cmd.Context(), req)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, resp)
		}
		printPropertyList(out, resp.Properties)
		fmt.Fprintf(out, "\n%d properties (%d total)\n", len(resp.Properties), resp.Total)
		return nil
	},
}

var propertyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := listingsClient.GetProperty(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		printProperty(cmd.OutOrStdout(), p)
		return nil
	},
}

var propertyCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		req := &client.PropertyRequest{Title: args[0]}
		req.Address, _ = f.GetString("address")
		req.Type, _ = f.GetString("type")
		req.Size, _ = f.GetString("size")
		req.Price, _ = f.GetString("price")
		req.ImageURL, _ = f.GetString("image")
		req.Description, _ = f.GetString("description")
		req.MLS, _ = f.GetString("mls")
		req.Featured, _ = f.GetBool("featured")

		p, err := listingsClient.CreateProperty(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", p.ID)
		return nil
	},
}

var propertyUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := propertyUpdateFromFlags(cmd)
		if err != nil {
			return err
		}
		p, err := listingsClient.UpdateProperty(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		printProperty(cmd.OutOrStdout(), p)
		return nil
	},
}

// propertyUpdateFromFlags sets a field only when its flag was given, so an
// explicit empty value clears it.
func propertyUpdateFromFlags(cmd *cobra.Command) (*client.UpdatePropertyRequest, error) {
	f := cmd.Flags()
	req := &client.UpdatePropertyRequest{}
	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	req.Title = str("title")
	req.Address = str("address")
	req.Type = str("type")
	req.Size = str("size")
	req.Price = str("price")
	req.ImageURL = str("image")
	req.Description = str("description")
	req.MLS = str("mls")
	if f.Changed("featured") {
		v, _ := f.GetBool("featured")
		req.Featured = &v
	}
	if *req == (client.UpdatePropertyRequest{}) {
		return nil, fmt.Errorf("nothing to update; pass at least one field flag")
	}
	return req, nil
}

var propertyDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete properties",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := listingsClient.DeleteProperty(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		}
		return nil
	},
}

var propertyFeaturedCmd = &cobra.Command{
	Use:   "featured",
	Short: "Show the featured properties on the home page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		props, err := listingsClient.FeaturedProperties(cmd.Context(), 0)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), props)
		}
		printFeatured(cmd.OutOrStdout(), props)
		return nil
	},
}

var propertyIngestCmd = &cobra.Command{
	Use:   "ingest <file|->",
	Short: "Send properties through the ingestion webhook",
	Long: `Reads one property object, an array of them, or {"properties": [...]}
from a JSON file (or stdin with "-") and posts it to the ingestion webhook.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhookToken, _ := cmd.Flags().GetString("webhook-token")

		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		reqs, err := parseIngestBody(data)
		if err != nil {
			return err
		}

		props, err := listingsClient.Ingest(cmd.Context(), webhookToken, reqs)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), props)
		}
		for _, p := range props {
			fmt.Fprintf(cmd.OutOrStdout(), "Received %s  %s\n", p.ID, p.Title)
		}
		return nil
	},
}

// parseIngestBody accepts a single object, a bare array, or a
// {"properties": [...]} wrapper.
func parseIngestBody(data []byte) ([]*client.PropertyRequest, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if data[0] == '[' {
		var reqs []*client.PropertyRequest
		if err := json.Unmarshal(data, &reqs); err != nil {
			return nil, fmt.Errorf("parsing properties: %w", err)
		}
		return nonEmptyIngest(reqs)
	}

	var wrapped struct {
		Properties *[]*client.PropertyRequest `json:"properties"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing properties: %w", err)
	}
	if wrapped.Properties != nil {
		return nonEmptyIngest(*wrapped.Properties)
	}

	var one client.PropertyRequest
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parsing property: %w", err)
	}
	return []*client.PropertyRequest{&one}, nil
}

func nonEmptyIngest(reqs []*client.PropertyRequest) ([]*client.PropertyRequest, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no properties in input")
	}
	return reqs, nil
}

func addPropertyFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("address", "", "street address")
	f.String("type", "", "property type (office, retail, industrial, ...)")
	f.String("size", "", "size, e.g. \"12,000 sq ft\"")
	f.String("price", "", "price as shown; \"$\" is added for display when missing")
	f.String("image", "", "image URL")
	f.String("description", "", "description")
	f.String("mls", "", "MLS number")
	f.Bool("featured", false, "show on the home page")
}

func init() {
	propertyListCmd.Flags().StringSliceP("type", "t", nil, "filter by type (repeatable)")
	propertyListCmd.Flags().Bool("featured", false, "only featured (or, with =false, only non-featured)")
	propertyListCmd.Flags().StringP("search", "q", "", "search title, address and description")
	propertyListCmd.Flags().String("sort", "-received_at", "sort key (received_at, title, price, created_at; prefix - for descending)")
	propertyListCmd.Flags().Int("limit", 20, "maximum number of properties to return")
	propertyListCmd.Flags().Int("offset", 0, "offset for pagination")

	addPropertyFieldFlags(propertyCreateCmd)
	addPropertyFieldFlags(propertyUpdateCmd)
	propertyUpdateCmd.Flags().String("title", "", "title")

	propertyIngestCmd.Flags().String("webhook-token", os.Getenv("CRESITE_WEBHOOK_TOKEN"), "ingestion webhook token")

	propertyCmd.AddCommand(propertyListCmd)
	propertyCmd.AddCommand(propertyShowCmd)
	propertyCmd.AddCommand(propertyFeaturedCmd)
	propertyCmd.AddCommand(propertyCreateCmd)
	propertyCmd.AddCommand(propertyUpdateCmd)
	propertyCmd.AddCommand(propertyDeleteCmd)
	propertyCmd.AddCommand(propertyIngestCmd)
}
