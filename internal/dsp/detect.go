package dsp

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Detection thresholds
const (
	DetectThresholdSigma  = 3.0 // threshold = median + 3 std
	DetectNoisePercentile = 0.9 // std is computed over values below this percentile
)

// Signal is a detected peak in a spectrum row
type Signal struct {
	Bin       int     // index in the row
	Frequency float64 // Hz
	SNR       float64 // peak value minus row median, in the row's units
}

// DetectSignals finds local maxima above median + 3 std(values below the
// 90th percentile), keeping peaks at least minDistance bins apart (higher
// peaks win). startFreq and span map bins to frequency.
func DetectSignals(row []float64, minDistance int, startFreq, span float64) []Signal {
	if len(row) < 3 {
		return nil
	}
	noiseFloor := Median(row)

	p90 := Percentile(row, DetectNoisePercentile)
	below := make([]float64, 0, len(row))
	for _, v := range row {
		if v < p90 {
			below = append(below, v)
		}
	}
	var noiseStd float64
	if len(below) > 0 {
		_, noiseStd = stat.PopMeanStdDev(below, nil)
	}
	threshold := noiseFloor + DetectThresholdSigma*noiseStd

	peaks := localMaxima(row)
	kept := peaks[:0]
	for _, p := range peaks {
		if row[p] >= threshold {
			kept = append(kept, p)
		}
	}
	peaks = enforceDistance(row, kept, minDistance)

	signals := make([]Signal, 0, len(peaks))
	for _, p := range peaks {
		signals = append(signals, Signal{
			Bin:       p,
			Frequency: startFreq + float64(p)*span/float64(len(row)),
			SNR:       row[p] - noiseFloor,
		})
	}
	return signals
}

// localMaxima returns indices of samples higher than their left neighbour
// and not lower than the right one. Flat tops report their middle sample.
// The first and last samples are never peaks.
func localMaxima(x []float64) []int {
	var peaks []int
	i := 1
	last := len(x) - 1
	for i < last {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < last && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				peaks = append(peaks, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return peaks
}

// enforceDistance removes peaks closer than distance to a higher peak
func enforceDistance(x []float64, peaks []int, distance int) []int {
	if distance <= 1 || len(peaks) < 2 {
		return peaks
	}
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] > x[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for _, idx := range order {
		if !keep[idx] {
			continue
		}
		for j := idx - 1; j >= 0 && peaks[idx]-peaks[j] < distance; j-- {
			keep[j] = false
		}
		for j := idx + 1; j < len(peaks) && peaks[j]-peaks[idx] < distance; j++ {
			keep[j] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}
