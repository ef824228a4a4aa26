package advisor

import (
	"fmt"

	"oscbot/strategy"
)

func tradeAnalysisPrompt(signal strategy.Signal, price float64, stats strategy.Stats) string {
	formatted := fmt.Sprintf("$%.2f", price)
	return fmt.Sprintf(`CURRENT TRADE ANALYSIS REQUEST

Signal: %s
Price NOW: %s

Recent Performance:
- Total Trades: %d
- Wins: %d
- Losses: %d
- Win Rate: %.1f%%

Question: Should I execute this %s order at %s?
Please provide quick advice based on the CURRENT price of %s.`,
		signal, formatted,
		stats.TotalTrades, stats.Wins, stats.Losses, stats.WinRate,
		signal, formatted, formatted)
}

func dailySummaryPrompt(stats strategy.Stats, quoteBalance, baseBalance float64) string {
	return fmt.Sprintf(`Trading Bot Daily Summary

Performance:
- Total Trades: %d
- Wins: %d
- Losses: %d
- Win Rate: %.1f%%

Balance:
- Quote: $%.2f
- Base: %.8f

Please remember these results and provide brief feedback.`,
		stats.TotalTrades, stats.Wins, stats.Losses, stats.WinRate,
		quoteBalance, baseBalance)
}

func suggestionsPrompt(buyThreshold, sellThreshold float64, stats strategy.Stats) string {
	return fmt.Sprintf(`Current Settings:
- Buy Threshold: %g%%
- Sell Threshold: %g%%

Results:
- Win Rate: %.1f%%
- Total Trades: %d

Should I adjust my grid spacing? Keep it brief.`,
		buyThreshold, sellThreshold, stats.WinRate, stats.TotalTrades)
}
