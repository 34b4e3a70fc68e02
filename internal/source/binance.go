package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quorum/internal/signal"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/markcheno/go-talib"
)

const (
	momentumInterval = "1h"
	momentumLookback = 200
	rsiPeriod        = 14
	// One funding interval at +/-0.10% maps to the score extremes.
	fundingFullScaleRate = 0.001
)

// MomentumSource scores a symbol by its RSI over recent hourly closes.
// RSI is already a bounded 0..100 oscillator, so it needs no rescaling.
type MomentumSource struct {
	SourceID string
	client   *binance.Client
}

func NewMomentumSource(id string, client *binance.Client) *MomentumSource {
	return &MomentumSource{SourceID: id, client: client}
}

func (s *MomentumSource) ID() string { return s.SourceID }

func (s *MomentumSource) Fetch(ctx context.Context, subject string) (float64, error) {
	symbol, err := normalizeSymbol(subject)
	if err != nil {
		return 0, signal.NewSourceError(s.SourceID, signal.KindInvalidSubject, err)
	}
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(momentumInterval).
		Limit(momentumLookback).
		Do(ctx)
	if err != nil {
		return 0, s.classify(err)
	}
	if len(klines) <= rsiPeriod {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable,
			fmt.Errorf("only %d candles for %s, need >%d", len(klines), symbol, rsiPeriod))
	}
	closes := make([]float64, 0, len(klines))
	for _, k := range klines {
		c, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			continue
		}
		closes = append(closes, c)
	}
	if len(closes) <= rsiPeriod {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable,
			fmt.Errorf("unparseable closes for %s", symbol))
	}
	rsi := talib.Rsi(closes, rsiPeriod)
	return clampScore(rsi[len(rsi)-1]), nil
}

func (s *MomentumSource) classify(err error) error {
	return classifyBinanceError(s.SourceID, err)
}

// FundingSource maps the perp funding premium around neutral: positive
// funding (longs paying) pushes the score above 50, negative below.
type FundingSource struct {
	SourceID string
	client   *futures.Client
}

func NewFundingSource(id string, client *futures.Client) *FundingSource {
	return &FundingSource{SourceID: id, client: client}
}

func (s *FundingSource) ID() string { return s.SourceID }

func (s *FundingSource) Fetch(ctx context.Context, subject string) (float64, error) {
	symbol, err := normalizeSymbol(subject)
	if err != nil {
		return 0, signal.NewSourceError(s.SourceID, signal.KindInvalidSubject, err)
	}
	premiums, err := s.client.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, classifyBinanceError(s.SourceID, err)
	}
	if len(premiums) == 0 {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable,
			fmt.Errorf("no premium index for %s", symbol))
	}
	rate, err := strconv.ParseFloat(premiums[0].LastFundingRate, 64)
	if err != nil {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable, err)
	}
	return clampScore(50 + rate/fundingFullScaleRate*50), nil
}

func classifyBinanceError(sourceID string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return signal.NewSourceError(sourceID, signal.KindTimeout, err)
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		// -1121: invalid symbol; -1100..: malformed parameter set.
		if apiErr.Code == -1121 || apiErr.Code == -1100 {
			return signal.NewSourceError(sourceID, signal.KindInvalidSubject, err)
		}
	}
	return signal.NewSourceError(sourceID, signal.KindUnavailable, err)
}

// normalizeSymbol accepts "btcusdt", "BTC/USDT" or "BTCUSDT" spellings.
func normalizeSymbol(subject string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(subject))
	symbol = strings.ReplaceAll(symbol, "/", "")
	symbol = strings.ReplaceAll(symbol, ":", "")
	if symbol == "" {
		return "", signal.ErrInvalidSubject
	}
	for _, r := range symbol {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: %q", signal.ErrInvalidSubject, subject)
		}
	}
	return symbol, nil
}
