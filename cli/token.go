package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yllada/ipcountry-tray/common"
	"golang.org/x/term"
)

func (c *CLI) newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the ipinfo.io API token",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the ipinfo.io token (read from the terminal without echo)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.setToken(cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored ipinfo.io token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.clearToken(cmd)
		},
	})

	return cmd
}

func (c *CLI) setToken(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	token, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "ipinfo.io token: ")
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	store := c.openStore(c.secretsDir(cfg))
	if err := store.Set(common.IPInfoTokenKey, token); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s.\n", store.Backend())
	return nil
}

func (c *CLI) clearToken(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	store := c.openStore(c.secretsDir(cfg))
	if !store.Exists(common.IPInfoTokenKey) {
		fmt.Fprintln(cmd.OutOrStdout(), "No token stored.")
		return nil
	}
	if err := store.Delete(common.IPInfoTokenKey); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
	return nil
}

// readSecret prompts on a terminal without echo, or reads one line from a
// pipe.
func readSecret(in io.Reader, prompt io.Writer, label string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, label)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
