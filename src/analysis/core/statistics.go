package core

import "math"

// -----------------------------------------------------------------------------

// CalculateMean returns the arithmetic mean, 0 for no data.
func CalculateMean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and population standard deviation.
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	mean := CalculateMean(data)
	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(data)))
	return mean, std
}

// -----------------------------------------------------------------------------

// MinMaxIndex returns the positions of the first minimum and first maximum.
// Both are 0 for no data.
func MinMaxIndex(data []float64) (int, int) {
	minIndex, maxIndex := 0, 0
	for i, v := range data {
		if v < data[minIndex] {
			minIndex = i
		}
		if v > data[maxIndex] {
			maxIndex = i
		}
	}
	return minIndex, maxIndex
}
