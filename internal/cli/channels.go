package cli

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Inspect alert channels",
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alert channels and whether they are enabled",
	RunE:  runChannelsList,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
	channelsCmd.AddCommand(channelsListCmd)
}

func runChannelsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Nothing is sent, so the channels do not need the shared client.
	registry, err := initChannels(cfg, http.DefaultClient, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CHANNEL\tENABLED\n")
	for _, ch := range registry.All() {
		fmt.Fprintf(w, "%s\t%t\n", ch.Name(), ch.Enabled())
	}
	return w.Flush()
}
