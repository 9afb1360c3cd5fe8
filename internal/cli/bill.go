package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var billCmd = &cobra.Command{
	Use:   "bill",
	Short: "Fetch and print the current bill without sending alerts",
	RunE:  runBill,
}

func init() {
	rootCmd.AddCommand(billCmd)
	billCmd.Flags().StringP("output", "o", "yaml", "Output format (yaml, json)")
}

func runBill(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != "yaml" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	cfg, err := loadValidConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())

	client, err := initHTTPClient(cfg)
	if err != nil {
		return err
	}

	bill, err := initBillClient(cfg, client, logger).GetBill(cmd.Context(), cfg.AccountNumber)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(bill); err != nil {
			return fmt.Errorf("encode bill: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(bill); err != nil {
			return fmt.Errorf("encode bill: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode bill: %w", err)
		}
	}
	return nil
}
