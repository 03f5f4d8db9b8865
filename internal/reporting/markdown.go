package reporting

import (
	"fmt"
	"strings"
	"time"

	"stock-signal-lab/internal/domain"
)

// RenderMarkdown renders the report as a markdown document.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Scan Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	renderScanTable(&sb, r)
	renderCategoryDistribution(&sb, r)
	renderTopSetups(&sb, r)
	renderAdjustments(&sb, r)
	renderSimulation(&sb, r)
	renderEvents(&sb, r)
	renderTradeStats(&sb, r)
	renderBuckets(&sb, r)

	return sb.String()
}

func renderScanTable(sb *strings.Builder, r *Report) {
	sb.WriteString("## Scan Results\n\n")
	if len(r.ScanRows) == 0 {
		sb.WriteString("No scan records.\n\n")
		return
	}
	sb.WriteString("| Instrument | Price | Score | Category | RSI | Trend | Sentiment | Alignment | Action |\n")
	sb.WriteString("|------------|-------|-------|----------|-----|-------|-----------|-----------|--------|\n")
	for _, row := range r.ScanRows {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.1f | %s | %.0f | %s | %+.2f | %s | %s |\n",
			row.Instrument, row.Price, row.Score, row.Category,
			row.RSI, row.Trend, row.Sentiment, row.Alignment, row.Recommendation.Action))
	}
	sb.WriteString("\n")
}

func renderCategoryDistribution(sb *strings.Builder, r *Report) {
	if len(r.CategoryCounts) == 0 {
		return
	}
	sb.WriteString("## Category Distribution\n\n")
	sb.WriteString("| Category | Count |\n")
	sb.WriteString("|----------|-------|\n")
	for _, c := range r.CategoryCounts {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", c.Category, c.Count))
	}
	sb.WriteString("\n")
}

func renderTopSetups(sb *strings.Builder, r *Report) {
	sb.WriteString(fmt.Sprintf("## Top Setups (score > %.0f)\n\n", topSetupMinScore))
	if len(r.TopSetups) == 0 {
		sb.WriteString("None this cycle.\n\n")
		return
	}
	sb.WriteString("| Instrument | Score | Category | Price | Stop | Alignment | Action | Flags |\n")
	sb.WriteString("|------------|-------|----------|-------|------|-----------|--------|-------|\n")
	for _, row := range r.TopSetups {
		flags := strings.Join(row.Flags, "; ")
		if flags == "" {
			flags = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s | %.1f | %s | %.2f | %.2f | %s | %s | %s |\n",
			row.Instrument, row.Score, row.Category, row.Price, row.SuggestedStop,
			row.Alignment, row.Recommendation.Action, flags))
	}
	sb.WriteString("\n")
}

func renderAdjustments(sb *strings.Builder, r *Report) {
	if len(r.Adjustments) == 0 {
		return
	}
	sb.WriteString("## Adjustment Factors\n\n")
	sb.WriteString("| Adjustment | Multiplier | Fired |\n")
	sb.WriteString("|------------|------------|-------|\n")
	for _, a := range r.Adjustments {
		sb.WriteString(fmt.Sprintf("| %s | x%.2f | %d |\n", a.Name, a.Multiplier, a.Fired))
	}
	sb.WriteString("\n")
}

func renderSimulation(sb *strings.Builder, r *Report) {
	if r.Account == nil {
		return
	}
	sb.WriteString("## Simulation Account\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Balance | %.2f |\n", r.Account.Balance))
	sb.WriteString(fmt.Sprintf("| Start Balance | %.2f |\n", r.Account.StartBalance))
	sb.WriteString(fmt.Sprintf("| Realized PnL | %+.2f |\n", r.Account.RealizedPnL))
	sb.WriteString(fmt.Sprintf("| Open Positions | %d |\n", r.Account.OpenPositions))
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.Account.ClosedTrades))
	sb.WriteString("\n")

	if len(r.OpenPositions) > 0 {
		sb.WriteString("### Open Positions\n\n")
		sb.WriteString("| Instrument | Entry | Stop | Target | Shares | High Water | Entry Score |\n")
		sb.WriteString("|------------|-------|------|--------|--------|------------|-------------|\n")
		for _, p := range r.OpenPositions {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.4f | %.2f | %.1f |\n",
				p.Instrument, p.EntryPrice, p.StopPrice, p.TakeProfitPrice,
				p.Shares, p.HighWaterPrice, p.EntryScore))
		}
		sb.WriteString("\n")
	}
}

func renderEvents(sb *strings.Builder, r *Report) {
	if len(r.EventCounts) == 0 {
		return
	}
	sb.WriteString("## Position Events\n\n")
	sb.WriteString("| Event | Count |\n")
	sb.WriteString("|-------|-------|\n")
	for _, e := range r.EventCounts {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", e.Type, e.Count))
	}
	sb.WriteString("\n")
}

func renderTradeStats(sb *strings.Builder, r *Report) {
	if r.Overall == nil {
		return
	}
	sb.WriteString("## Trade Statistics\n\n")
	sb.WriteString("| Scope | Trades | Win Rate | Net PnL | Profit Factor | Max Drawdown | Max Consec Losses |\n")
	sb.WriteString("|-------|--------|----------|---------|---------------|--------------|-------------------|\n")
	sb.WriteString(statsRow("overall", r.Overall))
	for _, stats := range r.PerInstrument {
		sb.WriteString(statsRow(stats.Instrument, stats))
	}
	sb.WriteString("\n")
}

func statsRow(scope string, s *domain.TradeStats) string {
	return fmt.Sprintf("| %s | %d | %.1f%% | %+.2f | %.2f | %.2f | %d |\n",
		scope, s.TotalTrades, s.WinRate*100, s.NetPnL, s.ProfitFactor,
		s.MaxDrawdown, s.MaxConsecutiveLosses)
}

func renderBuckets(sb *strings.Builder, r *Report) {
	if len(r.Buckets) == 0 {
		return
	}
	sb.WriteString("## Score Buckets\n\n")
	sb.WriteString("| Bucket | Trades | Win Rate | Net PnL | Profit Factor |\n")
	sb.WriteString("|--------|--------|----------|---------|---------------|\n")
	for _, b := range r.Buckets {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.1f%% | %+.2f | %.2f |\n",
			b.Label, b.Stats.TotalTrades, b.Stats.WinRate*100, b.Stats.NetPnL, b.Stats.ProfitFactor))
	}
	sb.WriteString("\n")
}
