// Package forecast fits an ordinary least-squares line to a historical
// demand series and projects future stock movement from it. The engine
// never fails: degenerate input (empty series, single point, zero
// variance) produces a well-formed result with sentinel values instead
// of an error, so callers can treat forecasting as best-effort.
package forecast

import (
	"fmt"
	"math"
	"time"
)

// Trend classifies the direction of the fitted line.
type Trend string

const (
	TrendIncreasing   Trend = "increasing"
	TrendDecreasing   Trend = "decreasing"
	TrendStable       Trend = "stable"
	TrendInsufficient Trend = "insufficient_data"
)

// Accuracy rates the fit quality from the absolute correlation.
type Accuracy string

const (
	AccuracyVeryHigh Accuracy = "very_high"
	AccuracyHigh     Accuracy = "high"
	AccuracyMedium   Accuracy = "medium"
	AccuracyLow      Accuracy = "low"
	AccuracyVeryLow  Accuracy = "very_low"
)

// Observation is one historical data point. Index is the position in
// the series (chronological order); Value is the observed quantity.
type Observation struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// Series is an ordered sequence of observations.
type Series []Observation

// SeriesFromValues builds a series from raw values in chronological
// order. Non-finite values are coerced to 0 here, at the boundary,
// so the fit itself never sees NaN or infinity.
func SeriesFromValues(values []float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		s[i] = Observation{Index: i, Value: v}
	}
	return s
}

// PredictedPoint is one projected future period.
type PredictedPoint struct {
	Period float64 `json:"period"` // regression x-coordinate of the point
	Date   string  `json:"date"`   // calendar date, YYYY-MM-DD
	Value  int     `json:"value"`  // projected units, never negative
	Kind   string  `json:"kind"`   // always "prediction"
}

// CalcRow is one row of the per-observation calculation table, kept
// for display and audit of the fit.
type CalcRow struct {
	No     int     `json:"no"`
	Label  string  `json:"label"`
	Period float64 `json:"period"`
	Value  float64 `json:"value"`
	X2     float64 `json:"x2"`
	XY     float64 `json:"xy"`
}

// Summary holds the aggregate sums and fitted parameters.
type Summary struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	XY          float64 `json:"xy"`
	X2          float64 `json:"x2"`
	N           int     `json:"n"`
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	Correlation float64 `json:"correlation"`
}

// Result is the full output of a fit: coefficients, classification,
// future predictions and the audit tables.
type Result struct {
	Slope            float64          `json:"slope"`
	Intercept        float64          `json:"intercept"`
	Correlation      float64          `json:"correlation"`
	Trend            Trend            `json:"trend"`
	Accuracy         Accuracy         `json:"accuracy"`
	Predictions      []PredictedPoint `json:"predictions"`
	CalculationTable []CalcRow        `json:"calculation_table"`
	SummaryTable     Summary          `json:"summary_table"`
}

// DefaultHorizon is the number of future periods projected when the
// caller does not specify one.
const DefaultHorizon = 30

// Engine fits a line to a series. It holds the series immutably after
// construction and carries no other state, so a single instance is
// safe to share across request goroutines.
type Engine struct {
	series Series
}

// New creates an engine over the given series. The series may be empty;
// all degenerate-case handling happens in Predict.
func New(series Series) *Engine {
	return &Engine{series: series}
}

// Predict fits the series and projects horizon future periods.
// A horizon below zero is treated as zero.
func (e *Engine) Predict(horizon int) Result {
	if horizon < 0 {
		horizon = 0
	}

	switch len(e.series) {
	case 0:
		return Result{
			Trend:            TrendInsufficient,
			Accuracy:         AccuracyVeryLow,
			Predictions:      []PredictedPoint{},
			CalculationTable: []CalcRow{},
		}
	case 1:
		return e.predictFlat(horizon)
	default:
		return e.predictFit(horizon)
	}
}

// predictFlat handles the single-observation case: no line can be
// fitted, so the series is treated as flat and the one value is
// carried forward unchanged.
func (e *Engine) predictFlat(horizon int) Result {
	y := e.series[0].Value
	value := int(math.Round(y))
	if value < 0 {
		value = 0
	}

	predictions := make([]PredictedPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		predictions = append(predictions, PredictedPoint{
			Period: float64(i),
			Date:   dateForOffset(i),
			Value:  value,
			Kind:   "prediction",
		})
	}

	return Result{
		Slope:       0,
		Intercept:   round4(y),
		Correlation: 0,
		Trend:       TrendStable,
		Accuracy:    AccuracyVeryLow,
		Predictions: predictions,
		CalculationTable: []CalcRow{
			{No: 1, Label: "Period 1", Period: 0, Value: y, X2: 0, XY: 0},
		},
		SummaryTable: Summary{Y: y, N: 1, Intercept: round4(y)},
	}
}

// predictFit runs the full least-squares fit for two or more
// observations.
func (e *Engine) predictFit(horizon int) Result {
	n := len(e.series)
	coords := centeredCoordinates(n)

	var sx, sy, sxy, sx2, sy2 float64
	table := make([]CalcRow, 0, n)

	for i, obs := range e.series {
		x := coords[i]
		y := obs.Value
		if math.IsNaN(y) || math.IsInf(y, 0) {
			y = 0
		}

		table = append(table, CalcRow{
			No:     i + 1,
			Label:  fmt.Sprintf("Period %d", i+1),
			Period: x,
			Value:  y,
			X2:     x * x,
			XY:     x * y,
		})

		sx += x
		sy += y
		sxy += x * y
		sx2 += x * x
		sy2 += y * y
	}

	fn := float64(n)

	slope := 0.0
	if denom := fn*sx2 - sx*sx; denom != 0 {
		slope = (fn*sxy - sx*sy) / denom
	}
	intercept := (sy - slope*sx) / fn

	correlation := 0.0
	if denom := math.Sqrt((fn*sx2 - sx*sx) * (fn*sy2 - sy*sy)); denom != 0 {
		correlation = (fn*sxy - sx*sy) / denom
	}

	slope = finite(slope)
	intercept = finite(intercept)
	correlation = finite(correlation)

	// Classification uses the true slope before display rounding.
	trend := classifyTrend(slope)
	accuracy := ClassifyAccuracy(correlation)

	// Future coordinates continue the historical step; the calendar
	// date is one day per future period regardless of the step.
	step := 1.0
	if n%2 == 0 {
		step = 2.0
	}
	last := coords[n-1]

	predictions := make([]PredictedPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		x := last + step*float64(i)
		v := math.Round(slope*x + intercept)
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		predictions = append(predictions, PredictedPoint{
			Period: x,
			Date:   dateForOffset(i),
			Value:  int(v),
			Kind:   "prediction",
		})
	}

	return Result{
		Slope:            round4(slope),
		Intercept:        round4(intercept),
		Correlation:      round4(correlation),
		Trend:            trend,
		Accuracy:         accuracy,
		Predictions:      predictions,
		CalculationTable: table,
		SummaryTable: Summary{
			X:           sx,
			Y:           sy,
			XY:          sxy,
			X2:          sx2,
			N:           n,
			Slope:       round4(slope),
			Intercept:   round4(intercept),
			Correlation: round4(correlation),
		},
	}
}

// centeredCoordinates assigns x-values so that their sum is zero,
// which keeps the normal equations well conditioned. Odd lengths use
// consecutive integers around 0 (step 1); even lengths use odd
// integers around 0 (step 2), e.g. -3,-1,1,3 for n=4.
func centeredCoordinates(n int) []float64 {
	xs := make([]float64, n)
	for i := 0; i < n; i++ {
		if n%2 == 1 {
			xs[i] = float64(i - (n-1)/2)
		} else {
			xs[i] = (float64(i) - float64(n)/2 + 0.5) * 2
		}
	}
	return xs
}

func classifyTrend(slope float64) Trend {
	switch {
	case slope > 0.1:
		return TrendIncreasing
	case slope < -0.1:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// ClassifyAccuracy maps an absolute correlation to an accuracy rating.
// Bounds are inclusive: |r| = 0.9 rates very_high.
func ClassifyAccuracy(correlation float64) Accuracy {
	abs := math.Abs(correlation)
	switch {
	case abs >= 0.9:
		return AccuracyVeryHigh
	case abs >= 0.7:
		return AccuracyHigh
	case abs >= 0.5:
		return AccuracyMedium
	case abs >= 0.3:
		return AccuracyLow
	default:
		return AccuracyVeryLow
	}
}

// dateForOffset returns today + offset days as YYYY-MM-DD.
func dateForOffset(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
