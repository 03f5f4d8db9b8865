// Command backtest evaluates how the composite score predicted trade
// outcomes. It reads a trade log CSV as written by cmd/scan or
// cmd/simulate, groups the trades into score buckets aligned with the
// category thresholds, and sweeps minimum-score entry filters.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"stock-signal-lab/internal/backtest"
	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/reporting"
	"stock-signal-lab/internal/storage/memory"
)

// bucketRow is the output projection of one score bucket.
type bucketRow struct {
	Bucket       string  `json:"bucket"`
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"win_rate"`
	NetPnL       float64 `json:"net_pnl"`
	ProfitFactor float64 `json:"profit_factor"`
	PnLMean      float64 `json:"pnl_mean"`
	PnLMedian    float64 `json:"pnl_median"`
}

// sweepRow is the output projection of one minimum-score filter.
type sweepRow struct {
	MinScore          float64 `json:"min_score"`
	Trades            int     `json:"trades"`
	WinRate           float64 `json:"win_rate"`
	NetPnL            float64 `json:"net_pnl"`
	AvoidedTrades     int     `json:"avoided_trades"`
	AvoidedPnL        float64 `json:"avoided_pnl"`
	TradeReductionPct float64 `json:"trade_reduction_pct"`
	PnLImprovement    float64 `json:"pnl_improvement"`
	Best              bool    `json:"best,omitempty"`
}

type backtestOutput struct {
	Source          string      `json:"source"`
	Trades          int         `json:"trades"`
	OriginalWinRate float64     `json:"original_win_rate"`
	OriginalPnL     float64     `json:"original_pnl"`
	Buckets         []bucketRow `json:"buckets"`
	Sweep           []sweepRow  `json:"sweep"`
}

func main() {
	// Parse flags
	tradesPath := flag.String("trades", "", "Trade log CSV as written by cmd/scan or cmd/simulate (required)")
	configPath := flag.String("config", "", "Path to YAML config (empty = built-in defaults)")
	minScore := flag.Float64("min-score", -1, "Evaluate a single minimum-score filter instead of the sweep")
	sweepList := flag.String("sweep", "30,40,50,60,70", "Comma-separated minimum scores for the filter sweep")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *tradesPath == "" {
		logger.Fatal("-trades is required")
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Load trades
	f, err := os.Open(*tradesPath)
	if err != nil {
		logger.Fatalf("open trades: %v", err)
	}
	trades, err := reporting.ParseTradesCSV(f)
	f.Close()
	if err != nil {
		logger.Fatalf("parse %s: %v", *tradesPath, err)
	}
	if len(trades) == 0 {
		logger.Fatalf("%s holds no trades", *tradesPath)
	}

	store := memory.NewTradeLogStore()
	for _, tl := range trades {
		if err := store.Insert(ctx, tl); err != nil {
			logger.Fatalf("load trade %s: %v", tl.PositionID, err)
		}
	}

	// Analyze
	analyzer := backtest.NewAnalyzer(store, cfg.Scoring.Categories)

	buckets, err := analyzer.ByBucket(ctx)
	if err != nil {
		logger.Fatalf("bucket analysis: %v", err)
	}

	var sweep []*backtest.FilterImpact
	if *minScore >= 0 {
		impact, err := analyzer.FilterImpact(ctx, *minScore)
		if err != nil {
			logger.Fatalf("filter impact: %v", err)
		}
		sweep = []*backtest.FilterImpact{impact}
	} else {
		minScores, err := parseSweep(*sweepList)
		if err != nil {
			logger.Fatalf("parse -sweep: %v", err)
		}
		impacts, err := analyzer.FilterSweep(ctx, minScores)
		if err != nil {
			logger.Fatalf("filter sweep: %v", err)
		}
		sweep = impacts
	}
	best := backtest.BestByWinRate(sweep)

	out := buildOutput(*tradesPath, len(trades), buckets, sweep, best)

	// Output
	if *outputJSON {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}
	printOutput(out)
}

func buildOutput(source string, total int, buckets []backtest.ScoreBucket, sweep []*backtest.FilterImpact, best *backtest.FilterImpact) *backtestOutput {
	out := &backtestOutput{Source: source, Trades: total}
	if len(sweep) > 0 {
		out.OriginalWinRate = sweep[0].OriginalWinRate
		out.OriginalPnL = sweep[0].OriginalPnL
	}
	for _, b := range buckets {
		out.Buckets = append(out.Buckets, bucketRow{
			Bucket:       b.Label,
			Trades:       b.Stats.TotalTrades,
			Wins:         b.Stats.Wins,
			WinRate:      b.Stats.WinRate,
			NetPnL:       b.Stats.NetPnL,
			ProfitFactor: b.Stats.ProfitFactor,
			PnLMean:      b.Stats.PnLMean,
			PnLMedian:    b.Stats.PnLMedian,
		})
	}
	for _, s := range sweep {
		out.Sweep = append(out.Sweep, sweepRow{
			MinScore:          s.MinScore,
			Trades:            s.FilteredTrades,
			WinRate:           s.FilteredWinRate,
			NetPnL:            s.FilteredPnL,
			AvoidedTrades:     s.AvoidedTrades,
			AvoidedPnL:        s.AvoidedPnL,
			TradeReductionPct: s.TradeReductionPct,
			PnLImprovement:    s.PnLImprovement,
			Best:              s == best,
		})
	}
	return out
}

func printOutput(out *backtestOutput) {
	fmt.Println("=== Score Buckets ===")
	fmt.Printf("%-22s %7s %7s %12s %8s %10s %10s\n", "Bucket", "Trades", "Win%", "Net PnL", "PF", "Mean", "Median")
	for _, b := range out.Buckets {
		fmt.Printf("%-22s %7d %6.1f%% %12.2f %8.2f %10.2f %10.2f\n",
			b.Bucket, b.Trades, b.WinRate*100, b.NetPnL, b.ProfitFactor, b.PnLMean, b.PnLMedian)
	}
	fmt.Println()
	fmt.Printf("Trades analyzed: %d, win rate %.1f%%, net PnL %.2f\n",
		out.Trades, out.OriginalWinRate*100, out.OriginalPnL)

	fmt.Println()
	fmt.Println("=== Minimum-Score Filter Sweep ===")
	fmt.Printf("%9s %7s %7s %12s %7s %12s %12s\n", "MinScore", "Trades", "Win%", "Net PnL", "Cut%", "AvoidedPnL", "Improvement")
	for _, s := range out.Sweep {
		marker := " "
		if s.Best {
			marker = "*"
		}
		fmt.Printf("%8.0f%s %7d %6.1f%% %12.2f %6.1f%% %12.2f %12.2f\n",
			s.MinScore, marker, s.Trades, s.WinRate*100, s.NetPnL,
			s.TradeReductionPct, s.AvoidedPnL, s.PnLImprovement)
	}
	fmt.Println()
	fmt.Println("* best filtered win rate")
}

func parseSweep(list string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad minimum score %q", part)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("empty sweep list")
	}
	return out, nil
}
