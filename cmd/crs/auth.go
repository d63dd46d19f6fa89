package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raderre/cresite/internal/client"
	"github.com/raderre/cresite/internal/ui"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Sign in with the admin token and save it to the active remote",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthPrompt(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// readToken prompts for the admin token. Input is hidden when stdin is a
// terminal.
func readToken(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Admin token: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// runAuthPrompt is the /auth entry point: it reads a token, checks it
// against the server and stores it on the active remote.
func runAuthPrompt(ctx context.Context, in io.Reader, out io.Writer) error {
	token, err := readToken(in, out)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("no token entered")
	}

	if err := client.NewHTTPClient(httpURL, token).CheckAuth(ctx); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("token rejected by %s", httpURL)
		}
		return fmt.Errorf("checking token: %w", err)
	}

	name, err := saveActiveToken(token)
	if err != nil {
		fmt.Fprintln(out, ui.RenderAccent("Token accepted."), "It was not saved:", err)
		return nil
	}
	fmt.Fprintf(out, "%s Saved to remote %q.\n", ui.RenderAccent("Token accepted."), name)
	return nil
}
