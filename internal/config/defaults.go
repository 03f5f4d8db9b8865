package config

// Default returns the tuned baseline configuration. Load layers the YAML
// file over these values, so a partial file only overrides what it names.
func Default() *Config {
	return &Config{
		Features: FeatureConfig{
			RSIPeriod:         14,
			BollingerPeriod:   20,
			BollingerStdDev:   2.0,
			EMAFastPeriod:     20,
			EMASlowPeriod:     50,
			TrendBufferPct:    0.5,
			MACDFastPeriod:    12,
			MACDSlowPeriod:    26,
			MACDSignalPeriod:  9,
			ATRPeriod:         14,
			ATRStopMultiplier: 1.5,
			MinCandlesMargin:  5,
		},
		Sentiment: SentimentConfig{
			Backend:          "keyword",
			HalfLifeHours:    12,
			ImpactMultiplier: 2.0,
			AI: AISentimentConfig{
				TimeoutSeconds:    10,
				RequestsPerMinute: 30,
			},
		},
		Scoring: ScoringConfig{
			Weights: Weights{
				Technical: 0.30,
				Sentiment: 0.25,
				Momentum:  0.20,
				Catalyst:  0.15,
				Timing:    0.10,
			},
			Categories: CategoryThresholds{
				StrongBuy: 75,
				Buy:       65,
				Caution:   50,
				Neutral:   35,
			},

			RSIPerfectOversold: 15,
			RSIStrongOversold:  25,
			RSIOversold:        35,
			MaxRSIStrongBuy:    30,
			MaxRSIBuy:          35,
			MaxRSIAnyLong:      50,

			MACDStrongHist: 0.01,
			MACDModestHist: 0.001,

			ATRSweetMax:    3,
			ATRGoodMax:     5,
			ATRWideMax:     8,
			ATRAbsoluteMax: 12,

			SentimentVeryBullish:    0.8,
			SentimentBullish:        0.5,
			SentimentBearish:        -0.5,
			NegativeSentimentFactor: 2.0,

			RequiredArticles: 1,
			MinArticles:      3,
			OptimalArticles:  8,
			MaxArticles:      20,
			NewsFreshHours:   6,
			NewsRecentHours:  12,
			NewsStaleHours:   24,

			FallingKnife:     Adjustment{Enabled: true, Multiplier: 0.5},
			EarningsWindow:   Adjustment{Enabled: true, Multiplier: 0.8},
			HighVolatility:   Adjustment{Enabled: true, Multiplier: 0.85},
			NewsRisk:         Adjustment{Enabled: true, Multiplier: 0.6},
			InsufficientData: Adjustment{Enabled: true, Multiplier: 0.3},
			StrongConfluence: Adjustment{Enabled: true, Multiplier: 1.15},
			FreshCatalyst:    Adjustment{Enabled: true, Multiplier: 1.10},
			OversoldUptrend:  Adjustment{Enabled: true, Multiplier: 1.12},

			FreshCatalystMaxAgeHours: 12,
			EarningsRiskDays:         7,
			VolatilityCapScore:       20,

			Timezone: "America/New_York",
		},
		Alignment: AlignmentConfig{
			StrongSentiment:  0.5,
			WeakSentiment:    0.1,
			MinArticles:      3,
			RSITooHighForBuy: 50,
		},
		Decision: DecisionConfig{
			RSIOversold:          30,
			RSIOverbought:        70,
			RSIExtremeOversold:   20,
			RSIExtremeOverbought: 80,
			SentimentBullish:     0.5,
			SentimentBearish:     -0.5,
			HighVolatilityATR:    5,
			WideStopsATR:         8,
		},
		Risk: RiskConfig{
			StartBalance:        200,
			RiskFraction:        0.02,
			MaxPositionFraction: 0.5,
			MaxPositions:        3,
			EntryThreshold:      65,
			RewardRatio:         3.0,
			TrailingEnabled:     true,
			TrailRiskMultiple:   0.5,
			MaxHoldingDays:      3,
			SkipFlaggedSignals:  true,
		},
		Scan: ScanConfig{
			Instruments:              []string{"NVDA", "META", "MSFT", "NFLX", "AAPL", "AMZN"},
			NewsLookbackHours:        24,
			AlertScoreThreshold:      75,
			AlertConfidenceThreshold: 70,
		},
	}
}
