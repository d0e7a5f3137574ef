package ensemble

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Linecast/models"
)

// Aggregator merges independent model predictions into one calibrated call
type Aggregator struct {
	cfg    *models.Config
	logger zerolog.Logger
}

func New(cfg *models.Config) *Aggregator {
	return &Aggregator{
		cfg:    cfg,
		logger: log.With().Str("component", "ensemble").Logger(),
	}
}

// Aggregate combines the successful predictions for one game. Failed models
// are excluded upstream, not zero-filled. freshnessPenalty is in percentage
// points and only ever lowers the merged confidence.
func (a *Aggregator) Aggregate(gameID string, preds []*models.ModelPrediction, market *models.MarketRecord, freshnessPenalty float64) (*models.EnsembleResult, error) {
	if len(preds) == 0 {
		return nil, models.NewAggregationError("no successful model predictions to aggregate")
	}

	var confSum, weightedTotal, plainTotal float64
	for _, p := range preds {
		confSum += p.Confidence
		weightedTotal += p.CalculatedTotal * p.Confidence
		plainTotal += p.CalculatedTotal
	}

	lowReliability := false
	var finalTotal float64
	if confSum > 0 {
		finalTotal = weightedTotal / confSum
	} else {
		// Every model reported zero confidence; fall back to an unweighted
		// mean and flag the result.
		finalTotal = plainTotal / float64(len(preds))
		lowReliability = true
	}

	meanConf := confSum / float64(len(preds))
	finalConf := meanConf - freshnessPenalty/100.0
	if finalConf < 0 {
		finalConf = 0
	}

	direction := models.DirectionUnder
	if finalTotal > a.cfg.DecisionBoundary {
		direction = models.DirectionOver
	}

	breakdown := make([]models.ModelBreakdown, 0, len(preds))
	for _, p := range preds {
		weight := 1.0 / float64(len(preds))
		if confSum > 0 {
			weight = p.Confidence / confSum
		}
		breakdown = append(breakdown, models.ModelBreakdown{
			ModelName:  p.ModelName,
			Direction:  p.Direction,
			Confidence: p.Confidence,
			Total:      p.CalculatedTotal,
			Weight:     weight,
		})
	}

	marketLine := a.cfg.DecisionBoundary
	if market != nil && market.Line > 0 {
		marketLine = market.Line
	}
	edge := finalTotal - marketLine

	result := &models.EnsembleResult{
		GameID:          gameID,
		Direction:       direction,
		Confidence:      round3(finalConf),
		CalculatedTotal: round2(finalTotal),
		MarketLine:      marketLine,
		Edge:            round2(edge),
		Recommendation:  a.recommend(finalConf, edge, lowReliability),
		Breakdown:       breakdown,
		LowReliability:  lowReliability,
		GeneratedAt:     time.Now(),
	}

	a.logger.Info().
		Str("game_id", gameID).
		Str("direction", result.Direction).
		Float64("total", result.CalculatedTotal).
		Float64("confidence", result.Confidence).
		Float64("edge", result.Edge).
		Str("recommendation", result.Recommendation).
		Int("models", len(preds)).
		Msg("ensemble aggregated")

	return result, nil
}

// recommend is a step function of (confidence, |edge|). Below the confidence
// floor nothing is playable regardless of edge.
func (a *Aggregator) recommend(confidence, edge float64, lowReliability bool) string {
	if lowReliability || confidence < a.cfg.FloorConfidence {
		return models.TierNoPlay
	}
	absEdge := math.Abs(edge)
	switch {
	case confidence >= a.cfg.StrongConfidence && absEdge >= a.cfg.StrongEdge:
		return models.TierStrong
	case confidence >= a.cfg.LeanConfidence && absEdge >= a.cfg.LeanEdge:
		return models.TierLean
	default:
		return models.TierSlight
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
