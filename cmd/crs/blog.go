package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raderre/cresite/internal/client"
)

var blogCmd = &cobra.Command{
	Use:     "blog",
	Short:   "Manage blog posts",
	GroupID: "listings",
}

var blogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blog posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		resp, err := listingsClient.ListBlogPosts(cmd.Context(), &client.ListBlogPostsRequest{
			Category: category,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		printBlogList(cmd.OutOrStdout(), resp.Posts, resp.Total)
		return nil
	},
}

var blogShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a blog post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		post, err := listingsClient.GetBlogPost(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), post)
		}
		printBlogPost(cmd.OutOrStdout(), post)
		return nil
	},
}

var blogCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a blog post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		req := &client.BlogPostRequest{Title: args[0]}
		req.Excerpt, _ = f.GetString("excerpt")
		req.ImageURL, _ = f.GetString("image")
		req.Category, _ = f.GetString("category")

		content, err := blogContent(cmd)
		if err != nil {
			return err
		}
		req.Content = content

		post, err := listingsClient.CreateBlogPost(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), post)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", post.ID)
		return nil
	},
}

var blogUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a blog post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		req := &client.UpdateBlogPostRequest{}
		str := func(name string) *string {
			if !f.Changed(name) {
				return nil
			}
			v, _ := f.GetString(name)
			return &v
		}
		req.Title = str("title")
		req.Excerpt = str("excerpt")
		req.ImageURL = str("image")
		req.Category = str("category")
		if f.Changed("content") || f.Changed("content-file") {
			content, err := blogContent(cmd)
			if err != nil {
				return err
			}
			req.Content = &content
		}
		if *req == (client.UpdateBlogPostRequest{}) {
			return fmt.Errorf("nothing to update; pass at least one field flag")
		}

		post, err := listingsClient.UpdateBlogPost(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), post)
		}
		printBlogPost(cmd.OutOrStdout(), post)
		return nil
	},
}

var blogDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more blog posts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			if err := listingsClient.DeleteBlogPost(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %s\n", args[0])
			return nil
		}

		resp, err := listingsClient.DeleteBlogPosts(cmd.Context(), args)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, resp)
		}
		fmt.Fprintf(out, "Deleted %d posts\n", resp.Deleted)
		for _, id := range resp.Missing {
			fmt.Fprintf(out, "  not found: %s\n", id)
		}
		return nil
	},
}

// blogContent reads --content-file when given, else --content.
func blogContent(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("content-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	content, _ := cmd.Flags().GetString("content")
	return content, nil
}

func addBlogFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("excerpt", "", "short summary shown in the blog list")
	f.String("content", "", "post body")
	f.String("content-file", "", "read the post body from a file")
	f.String("image", "", "image URL")
	f.String("category", "", "category")
}

func init() {
	blogListCmd.Flags().String("category", "", "filter by category")
	blogListCmd.Flags().Int("limit", 20, "maximum number of posts to return")
	blogListCmd.Flags().Int("offset", 0, "offset for pagination")

	addBlogFieldFlags(blogCreateCmd)
	addBlogFieldFlags(blogUpdateCmd)
	blogUpdateCmd.Flags().String("title", "", "title")

	blogCmd.AddCommand(blogListCmd)
	blogCmd.AddCommand(blogShowCmd)
	blogCmd.AddCommand(blogCreateCmd)
	blogCmd.AddCommand(blogUpdateCmd)
	blogCmd.AddCommand(blogDeleteCmd)
}
