package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yllada/ipcountry-tray/common"
	"github.com/yllada/ipcountry-tray/ui"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Look up the public IP and its country once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.check(cmd)
		},
	}
}

// check runs a single lookup and prints the result as a table.
func (c *CLI) check(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	store := c.openStore(c.secretsDir(cfg))
	poller, closer, err := c.newPoller(cfg, store)
	if err != nil {
		return err
	}
	defer closer.Close()

	result, err := poller.Resolve(cmd.Context())
	if err != nil {
		return fmt.Errorf("no internet connection: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IP\tCOUNTRY\tNAME")
	fmt.Fprintln(w, "--\t-------\t----")
	fmt.Fprintf(w, "%s\t%s\t%s\n", result.IP, result.Country, ui.CountryName(result.Country))
	if !common.IsKnownCountry(result.Country) {
		common.LogWarn("Country lookup failed for %s", result.IP)
	}
	return w.Flush()
}
