package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/raderre/cresite/internal/model"
	"github.com/raderre/cresite/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func featuredMark(p *model.Property) string {
	if p.Featured {
		return ui.RenderFeatured("*")
	}
	return " "
}

func printProperty(w io.Writer, p *model.Property) {
	fmt.Fprintf(w, "ID:          %s\n", p.ID)
	fmt.Fprintf(w, "Title:       %s\n", p.Title)
	fmt.Fprintf(w, "Address:     %s\n", p.Address)
	fmt.Fprintf(w, "Type:        %s\n", p.Type)
	fmt.Fprintf(w, "Size:        %s\n", p.Size)
	fmt.Fprintf(w, "Price:       %s\n", ui.RenderPrice(p.DisplayPrice()))
	fmt.Fprintf(w, "Featured:    %t\n", p.Featured)
	if p.MLS != "" {
		fmt.Fprintf(w, "MLS:         %s\n", p.MLS)
	}
	if p.ImageURL != "" {
		fmt.Fprintf(w, "Image:       %s\n", p.ImageURL)
	}
	if p.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", p.Description)
	}
	if !p.ReceivedAt.IsZero() {
		fmt.Fprintf(w, "Received At: %s\n", p.ReceivedAt.Local().Format(timeLayout))
	}
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", p.UpdatedAt.Local().Format(timeLayout))
	}
}

func printPropertyList(w io.Writer, props []*model.Property) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " \tID\tTYPE\tPRICE\tTITLE\tADDRESS")
	for _, p := range props {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			featuredMark(p),
			p.ID,
			p.Type,
			p.DisplayPrice(),
			ui.Truncate(p.Title, 40),
			ui.Truncate(p.Address, 40),
		)
	}
	tw.Flush()
}

func printBlogPost(w io.Writer, b *model.BlogPost) {
	fmt.Fprintf(w, "ID:        %s\n", b.ID)
	fmt.Fprintf(w, "Title:     %s\n", b.Title)
	fmt.Fprintf(w, "Category:  %s\n", b.Category)
	if b.Excerpt != "" {
		fmt.Fprintf(w, "Excerpt:   %s\n", b.Excerpt)
	}
	if b.ImageURL != "" {
		fmt.Fprintf(w, "Image:     %s\n", b.ImageURL)
	}
	if !b.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created:   %s\n", b.CreatedAt.Local().Format(timeLayout))
	}
	if b.Content != "" {
		fmt.Fprintf(w, "\n%s\n", b.Content)
	}
}

func printBlogList(w io.Writer, posts []*model.BlogPost, total int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tCREATED\tTITLE")
	for _, b := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			b.ID,
			b.Category,
			b.CreatedAt.Local().Format("2006-01-02"),
			ui.Truncate(b.Title, 50),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d posts (%d total)\n", len(posts), total)
}

// printFeatured renders the live featured list as numbered cards.
func printFeatured(w io.Writer, props []*model.Property) {
	if len(props) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("No featured properties."))
		return
	}
	for i, p := range props {
		fmt.Fprintf(w, "%d. %s  %s\n", i+1, ui.RenderAccent(p.Title), ui.RenderPrice(p.DisplayPrice()))
		fmt.Fprintf(w, "   %s\n", ui.RenderMuted(joinNonEmpty(" | ", p.Address, p.Type, p.Size)))
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, s := range parts {
		if s == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += s
	}
	return out
}
