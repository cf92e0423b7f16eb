// Package forecast projects future monthly cash flow from the
// transaction history using a simple linear trend over monthly nets.
package forecast

import (
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/quillbooks/quill/internal/domain"
	"github.com/quillbooks/quill/internal/utils"
)

// MonthlyNet is the observed net cash flow for one calendar month
type MonthlyNet struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Net   float64 `json:"net"`
}

// Projection is one forecast month
type Projection struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Net   float64 `json:"net"`
}

// Result is a cash flow forecast with the statistics backing it
type Result struct {
	History     []MonthlyNet `json:"history"`
	Projections []Projection `json:"projections"`
	MeanNet     float64      `json:"mean_net"`
	StdDevNet   float64      `json:"std_dev_net"`
	Slope       float64      `json:"slope"`
	Intercept   float64      `json:"intercept"`
}

// Forecaster derives cash flow forecasts for a partition
type Forecaster struct {
	log zerolog.Logger
}

// NewForecaster creates a new forecaster
func NewForecaster(log zerolog.Logger) *Forecaster {
	return &Forecaster{
		log: log.With().Str("component", "forecast").Logger(),
	}
}

// Forecast fits a linear trend to the partition's monthly net flows
// and projects it forward. At least two observed months are needed for
// a trend; with fewer, the projection repeats the observed mean.
func (f *Forecaster) Forecast(txs []domain.Transaction, months int) Result {
	if months <= 0 {
		months = 3
	}

	history := monthlyNets(txs)
	result := Result{History: history}
	if len(history) == 0 {
		return result
	}

	nets := make([]float64, len(history))
	xs := make([]float64, len(history))
	for i, m := range history {
		nets[i] = m.Net
		xs[i] = float64(i)
	}

	result.MeanNet = stat.Mean(nets, nil)
	if len(nets) > 1 {
		result.StdDevNet = stat.StdDev(nets, nil)
		result.Intercept, result.Slope = stat.LinearRegression(xs, nets, nil, false)
	} else {
		result.Intercept = result.MeanNet
	}

	last := history[len(history)-1]
	year, month := last.Year, last.Month
	for i := 1; i <= months; i++ {
		month++
		if month > 12 {
			month = 1
			year++
		}
		x := float64(len(history) - 1 + i)
		result.Projections = append(result.Projections, Projection{
			Year:  year,
			Month: month,
			Net:   result.Intercept + result.Slope*x,
		})
	}

	f.log.Debug().
		Int("observed_months", len(history)).
		Int("projected_months", months).
		Float64("slope", result.Slope).
		Msg("Cash flow forecast computed")

	return result
}

func monthlyNets(txs []domain.Transaction) []MonthlyNet {
	byKey := make(map[[2]int]float64)
	for _, tx := range txs {
		if err := domain.ValidateTransaction(tx); err != nil {
			continue
		}
		year, month := utils.MonthKey(tx.Date)
		net, _ := tx.SignedAmount().Float64()
		byKey[[2]int{year, month}] += net
	}

	nets := make([]MonthlyNet, 0, len(byKey))
	for key, net := range byKey {
		nets = append(nets, MonthlyNet{Year: key[0], Month: key[1], Net: net})
	}
	sort.Slice(nets, func(i, j int) bool {
		if nets[i].Year != nets[j].Year {
			return nets[i].Year < nets[j].Year
		}
		return nets[i].Month < nets[j].Month
	})
	return nets
}
