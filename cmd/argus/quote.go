package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/XavierBriggs/Argus/pkg/models"
)

var (
	quoteSport   string
	quoteHome    string
	quoteAway    string
	quoteMarkets string
	quoteStart   string
	quoteTimeout time.Duration
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Retrieve quotes for one event and print them as JSON",
	Example: `  argus quote --sport NBA --home "Los Angeles Lakers" --away "Golden State Warriors"
  argus quote --sport nfl --home Chiefs --away Bills --markets h2h,spreads`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&quoteSport, "sport", "", "Sport tag, e.g. NBA or basketball_nba (required)")
	quoteCmd.Flags().StringVar(&quoteHome, "home", "", "Home participant (required)")
	quoteCmd.Flags().StringVar(&quoteAway, "away", "", "Away participant (required)")
	quoteCmd.Flags().StringVar(&quoteMarkets, "markets", "", "Comma separated markets: h2h,spreads,totals (default: all)")
	quoteCmd.Flags().StringVar(&quoteStart, "start", "", "Scheduled start, RFC3339")
	quoteCmd.Flags().DurationVar(&quoteTimeout, "timeout", time.Minute, "Overall deadline")
	_ = quoteCmd.MarkFlagRequired("sport")
	_ = quoteCmd.MarkFlagRequired("home")
	_ = quoteCmd.MarkFlagRequired("away")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), quoteTimeout)
	defer cancel()

	markets, err := models.ParseMarkets(quoteMarkets)
	if err != nil {
		return err
	}

	var start time.Time
	if quoteStart != "" {
		start, err = time.Parse(time.RFC3339, quoteStart)
		if err != nil {
			return fmt.Errorf("--start must be RFC3339: %w", err)
		}
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	sport := quoteSport
	if module, ok := a.registry.Resolve(sport); ok {
		sport = module.GetSportKey()
	}

	req, err := models.NewOddsRequest(sport, quoteHome, quoteAway, start, markets...)
	if err != nil {
		return err
	}

	set := a.orchestrator.GetQuotes(ctx, req)

	out, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode quote set: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
