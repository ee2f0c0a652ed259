package indicator

// MovingAverage calculates a Simple Moving Average aligned with its input.
// The result has the same length as values; the first window-1 entries are
// nil because the window is not yet full. A window below 1 yields all nils.
//
// Each window is summed afresh so results match a straight mean of the
// window bit for bit.
func MovingAverage(values []float64, window int) []*float64 {
	result := make([]*float64, len(values))
	if window < 1 {
		return result
	}

	for i := window - 1; i < len(values); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		avg := sum / float64(window)
		result[i] = &avg
	}

	return result
}
