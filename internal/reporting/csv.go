package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stock-signal-lab/internal/domain"
)

// RenderScanCSV renders scan records as CSV. Flags are joined with
// semicolons so the row stays one line.
func RenderScanCSV(rows []*domain.ScanRecord) string {
	var sb strings.Builder

	sb.WriteString("scan_id,instrument,timestamp_ms,price,rsi,bollinger,trend,atr_pct,macd_histogram,")
	sb.WriteString("sentiment,articles,news_age_hours,earnings_soon,")
	sb.WriteString("score,category,alignment,alignment_score,news_direction,news_confidence,")
	sb.WriteString("action,suggested_stop,flags\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.4f,%.2f,%s,%s,%.2f,%.4f,%.4f,%d,%.1f,%t,%.2f,%s,%s,%.2f,%s,%.1f,%s,%.4f,%s\n",
			r.ScanID,
			r.Instrument,
			r.TimestampMs,
			r.Price,
			r.RSI,
			r.Bollinger,
			r.Trend,
			r.ATRPct,
			r.MACDHistogram,
			r.Sentiment,
			r.ArticleCount,
			r.NewsAgeHours,
			r.EarningsSoon,
			r.Score,
			r.Category,
			r.Alignment,
			r.AlignmentScore,
			r.NewsDirection,
			r.NewsConfidence,
			r.Recommendation.Action,
			r.SuggestedStop,
			strings.Join(r.Flags, ";"),
		))
	}

	return sb.String()
}

// tradesHeader is the required first line of a trades CSV, matching
// what RenderTradesCSV writes.
var tradesHeader = []string{
	"position_id", "instrument", "entry_time_ms", "exit_time_ms", "entry_price", "exit_price",
	"shares", "pnl", "pnl_pct", "exit_status", "entry_score", "holding_ms", "win",
}

// RenderTradesCSV renders closed trades as CSV.
func RenderTradesCSV(trades []*domain.TradeLog) string {
	var sb strings.Builder

	sb.WriteString(strings.Join(tradesHeader, ","))
	sb.WriteByte('\n')

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%.4f,%.4f,%.4f,%.4f,%.4f,%s,%.2f,%d,%t\n",
			t.PositionID,
			t.Instrument,
			t.EntryTimeMs,
			t.ExitTimeMs,
			t.EntryPrice,
			t.ExitPrice,
			t.Shares,
			t.PnL,
			t.PnLPct,
			t.ExitStatus,
			t.EntryScore,
			t.HoldingMs,
			t.Win,
		))
	}

	return sb.String()
}

// ParseTradesCSV reads back the format RenderTradesCSV writes. The
// header row is required; every row must carry all columns.
func ParseTradesCSV(r io.Reader) ([]*domain.TradeLog, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(tradesHeader) {
		return nil, fmt.Errorf("header has %d columns, want %d", len(header), len(tradesHeader))
	}
	for i, col := range tradesHeader {
		if strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("header column %d is %q, want %q", i+1, header[i], col)
		}
	}

	var out []*domain.TradeLog
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tl, err := parseTradeRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, tl)
	}
	return out, nil
}

func parseTradeRow(row []string) (*domain.TradeLog, error) {
	tl := &domain.TradeLog{
		PositionID: row[0],
		Instrument: row[1],
		ExitStatus: domain.PositionStatus(row[9]),
	}
	if tl.PositionID == "" || tl.Instrument == "" {
		return nil, errors.New("empty position_id or instrument")
	}

	var err error
	if tl.EntryTimeMs, err = strconv.ParseInt(row[2], 10, 64); err != nil {
		return nil, fmt.Errorf("entry_time_ms %q: %w", row[2], err)
	}
	if tl.ExitTimeMs, err = strconv.ParseInt(row[3], 10, 64); err != nil {
		return nil, fmt.Errorf("exit_time_ms %q: %w", row[3], err)
	}
	if tl.EntryPrice, err = strconv.ParseFloat(row[4], 64); err != nil {
		return nil, fmt.Errorf("entry_price %q: %w", row[4], err)
	}
	if tl.ExitPrice, err = strconv.ParseFloat(row[5], 64); err != nil {
		return nil, fmt.Errorf("exit_price %q: %w", row[5], err)
	}
	if tl.Shares, err = strconv.ParseFloat(row[6], 64); err != nil {
		return nil, fmt.Errorf("shares %q: %w", row[6], err)
	}
	if tl.PnL, err = strconv.ParseFloat(row[7], 64); err != nil {
		return nil, fmt.Errorf("pnl %q: %w", row[7], err)
	}
	if tl.PnLPct, err = strconv.ParseFloat(row[8], 64); err != nil {
		return nil, fmt.Errorf("pnl_pct %q: %w", row[8], err)
	}
	if tl.EntryScore, err = strconv.ParseFloat(row[10], 64); err != nil {
		return nil, fmt.Errorf("entry_score %q: %w", row[10], err)
	}
	if tl.HoldingMs, err = strconv.ParseInt(row[11], 10, 64); err != nil {
		return nil, fmt.Errorf("holding_ms %q: %w", row[11], err)
	}
	if tl.Win, err = strconv.ParseBool(row[12]); err != nil {
		return nil, fmt.Errorf("win %q: %w", row[12], err)
	}
	return tl, nil
}
