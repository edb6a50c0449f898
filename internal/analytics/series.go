package analytics

import (
	"math"
	"time"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// Mode selects whether a series reports raw counts or per-bucket stage
// shares.
type Mode string

const (
	ModeCount   Mode = "count"
	ModePercent Mode = "percent"
)

// Rolling-average trailing window widths per granularity.
const (
	rollingWindowDaily   = 7
	rollingWindowMonthly = 3
)

// Bucket is one interval of a time series.
type Bucket struct {
	Label      string            `json:"label"`
	Total      int               `json:"total"`
	Stages     map[Stage]int     `json:"stages"`
	Percent    map[Stage]float64 `json:"percent,omitempty"`
	Cumulative int               `json:"cumulative"`
	RollingAvg float64           `json:"rolling_avg"`
}

// Insights summarizes a series for the dashboard header cards.
type Insights struct {
	PeakLabel        string  `json:"peak_label"`
	PeakTotal        int     `json:"peak_total"`
	AveragePerBucket float64 `json:"average_per_bucket"`
	GrowthPercent    float64 `json:"growth_percent"`
	TopStage         Stage   `json:"top_stage"`
}

// Series is a fully derived time-bucketed view of the lead collection.
type Series struct {
	Granularity Granularity `json:"granularity"`
	Mode        Mode        `json:"mode"`
	Buckets     []Bucket    `json:"buckets"`
	ScaleMax    int         `json:"scale_max"`
	Insights    Insights    `json:"insights"`
}

// TimeSeries buckets the collection by dateAdded over the given window,
// breaking each bucket down by derived stage, and attaches cumulative
// totals, rolling averages and insights. Leads whose dateAdded is missing
// or malformed are excluded; they never surface as fabricated data points.
// now anchors the relative window kinds and must be supplied by the caller.
func TimeSeries(leads []model.Lead, window Window, mode Mode, now time.Time) Series {
	start, end := window.resolve(now)
	n := window.bucketCount(start, end)
	if n < 0 {
		n = 0
	}

	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i] = Bucket{
			Label:  window.bucketLabel(start, i),
			Stages: make(map[Stage]int, len(AllStages())),
		}
	}

	for _, lead := range leads {
		added, ok := utils.ParseISODate(lead.DateAdded)
		if !ok {
			continue
		}
		idx := window.bucketIndex(start, end, added, n)
		if idx < 0 {
			continue
		}
		buckets[idx].Total++
		buckets[idx].Stages[DeriveStage(lead)]++
	}

	if mode == ModePercent {
		for i := range buckets {
			buckets[i].Percent = stageShares(buckets[i])
		}
	}

	attachCumulative(buckets)
	attachRollingAverage(buckets, rollingWindow(window.Granularity()))

	series := Series{
		Granularity: window.Granularity(),
		Mode:        mode,
		Buckets:     buckets,
		Insights:    computeInsights(buckets),
	}
	if mode == ModePercent {
		series.ScaleMax = 100
	} else {
		series.ScaleMax = ScaleMax(maxTotal(buckets))
	}
	return series
}

// ScaleMax computes the padded axis maximum for a raw series maximum:
// values up to 5 get one unit of headroom; larger values get 15% (below
// 50) or 10% (at 50 and above), rounded up to the nearest step of 2, 5 or
// 10 depending on magnitude.
func ScaleMax(rawMax int) int {
	if rawMax <= 0 {
		return 1
	}
	if rawMax <= 5 {
		return rawMax + 1
	}

	factor := 1.10
	if rawMax < 50 {
		factor = 1.15
	}
	candidate := float64(rawMax) * factor

	step := 10.0
	switch {
	case candidate < 20:
		step = 2
	case candidate < 100:
		step = 5
	}
	return int(math.Ceil(candidate/step) * step)
}

// stageShares expresses each stage's share of the bucket total as a
// percentage; an empty bucket yields zeros rather than NaN.
func stageShares(b Bucket) map[Stage]float64 {
	shares := make(map[Stage]float64, len(b.Stages))
	if b.Total == 0 {
		return shares
	}
	for stage, count := range b.Stages {
		shares[stage] = float64(count) / float64(b.Total) * 100
	}
	return shares
}

func attachCumulative(buckets []Bucket) {
	running := 0
	for i := range buckets {
		running += buckets[i].Total
		buckets[i].Cumulative = running
	}
}

// attachRollingAverage computes the trailing-window mean of bucket totals.
// The window is truncated at the start of the series; there is no
// look-ahead and no wraparound.
func attachRollingAverage(buckets []Bucket, window int) {
	for i := range buckets {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum := 0
		for j := lo; j <= i; j++ {
			sum += buckets[j].Total
		}
		buckets[i].RollingAvg = float64(sum) / float64(i-lo+1)
	}
}

func rollingWindow(g Granularity) int {
	if g == GranularityMonthly {
		return rollingWindowMonthly
	}
	return rollingWindowDaily
}

func maxTotal(buckets []Bucket) int {
	max := 0
	for _, b := range buckets {
		if b.Total > max {
			max = b.Total
		}
	}
	return max
}

// computeInsights derives the scalar summary values: the first bucket
// holding the series maximum, the mean per bucket, the growth between the
// two halves of the series, and the stage with the highest cumulative
// count.
func computeInsights(buckets []Bucket) Insights {
	ins := Insights{}
	if len(buckets) == 0 {
		return ins
	}

	sum := 0
	peakIdx := 0
	for i, b := range buckets {
		sum += b.Total
		if b.Total > buckets[peakIdx].Total {
			peakIdx = i
		}
	}
	ins.PeakLabel = buckets[peakIdx].Label
	ins.PeakTotal = buckets[peakIdx].Total
	ins.AveragePerBucket = float64(sum) / float64(len(buckets))
	ins.GrowthPercent = growthPercent(buckets)
	ins.TopStage = topStage(buckets)
	return ins
}

// growthPercent is the percent change between the first and second half of
// the series, split at floor(n/2). An all-zero first half reports 100 when
// the second half has volume and 0 otherwise, never a division by zero.
func growthPercent(buckets []Bucket) float64 {
	half := len(buckets) / 2
	firstSum, secondSum := 0, 0
	for i, b := range buckets {
		if i < half {
			firstSum += b.Total
		} else {
			secondSum += b.Total
		}
	}
	if firstSum == 0 {
		if secondSum > 0 {
			return 100
		}
		return 0
	}
	return float64(secondSum-firstSum) / float64(firstSum) * 100
}

// topStage picks the stage with the highest cumulative total across the
// whole series; ties resolve to the earlier stage in pipeline order.
func topStage(buckets []Bucket) Stage {
	totals := make(map[Stage]int, len(AllStages()))
	for _, b := range buckets {
		for stage, count := range b.Stages {
			totals[stage] += count
		}
	}
	best := StageNew
	bestCount := -1
	for _, stage := range AllStages() {
		if totals[stage] > bestCount {
			best = stage
			bestCount = totals[stage]
		}
	}
	return best
}
