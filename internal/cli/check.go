package cli

import (
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/kplc-alerts/pkg/monitor"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the balance and alert if a payment is due",
	Long: `Fetch the current bill and, when the balance is negative, send an alert
through each enabled channel in order. The first channel failure stops the
run with a non-zero exit code.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadValidConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())

	client, err := initHTTPClient(cfg)
	if err != nil {
		return err
	}

	registry, err := initChannels(cfg, client, logger)
	if err != nil {
		return err
	}

	logger.Debug("channels registered", "channels", registry.List())

	mon := monitor.New(initBillClient(cfg, client, logger), cfg.AccountNumber, registry.All(), logger)
	out, err := mon.Check(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !out.BalanceDue {
		fmt.Fprintf(w, "No balance due for account %s (balance %s)\n", cfg.AccountNumber, out.Bill.Balance.String())
		return nil
	}

	notified := "none"
	if len(out.Notified) > 0 {
		notified = strings.Join(out.Notified, ", ")
	}
	fmt.Fprintf(w, "Balance of %s due for account %s. Notified: %s\n", out.Bill.Balance.String(), cfg.AccountNumber, notified)
	return nil
}
