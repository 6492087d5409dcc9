package fingerprint

// BuildHistogram buckets each channel into bins equal-width ranges over
// [0, 256) and returns the flattened bins^3 histogram indexed by
// r*bins^2 + g*bins + b, normalised by the sample count.
//
// With no samples the result is all zeros: callers treat that as "no
// signal", not as a comparable distribution.
func BuildHistogram(pixels []Pixel, bins int) []float64 {
	if bins < 1 {
		return nil
	}

	histogram := make([]float64, bins*bins*bins)
	if len(pixels) == 0 {
		return histogram
	}

	for _, p := range pixels {
		r := int(p.R) * bins / 256
		g := int(p.G) * bins / 256
		b := int(p.B) * bins / 256
		histogram[r*bins*bins+g*bins+b]++
	}

	total := float64(len(pixels))
	for i := range histogram {
		histogram[i] /= total
	}

	return histogram
}
