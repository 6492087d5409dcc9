package fingerprint

import (
	"math"
	"sort"

	"github.com/jmylchreest/otic/internal/colour"
)

const (
	// dominantQuantStep merges near-duplicate colours before counting.
	dominantQuantStep = 32

	// MaxDominantColors is the maximum number of dominant colours reported.
	MaxDominantColors = 5

	// dominantMinShare is the exclusive lower bound on a cluster's share.
	dominantMinShare = 0.02
)

// DominantColor is a coarse colour cluster and its share of the samples.
type DominantColor struct {
	R          uint8   `json:"r"`
	G          uint8   `json:"g"`
	B          uint8   `json:"b"`
	Percentage float64 `json:"percentage"`
}

// RGB returns the cluster colour.
func (d DominantColor) RGB() colour.RGB {
	return colour.RGB{R: d.R, G: d.G, B: d.B}
}

// quantize snaps a channel to the nearest multiple of dominantQuantStep.
// 256 is not representable, so the top bucket saturates at 255.
func quantize(c uint8) uint8 {
	q := math.Round(float64(c)/dominantQuantStep) * dominantQuantStep
	if q > 255 {
		return 255
	}
	return uint8(q)
}

// ExtractDominantColors groups samples by quantised colour and returns up to
// MaxDominantColors clusters holding more than 2% of the samples, sorted by
// share descending. Reported colours are the quantised values.
func ExtractDominantColors(pixels []Pixel) []DominantColor {
	if len(pixels) == 0 {
		return []DominantColor{}
	}

	counts := make(map[colour.RGB]int)
	for _, p := range pixels {
		key := colour.RGB{R: quantize(p.R), G: quantize(p.G), B: quantize(p.B)}
		counts[key]++
	}

	type cluster struct {
		rgb   colour.RGB
		count int
	}
	clusters := make([]cluster, 0, len(counts))
	for rgb, count := range counts {
		clusters = append(clusters, cluster{rgb: rgb, count: count})
	}

	// Ties are broken by colour so the order never depends on map iteration.
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].count != clusters[j].count {
			return clusters[i].count > clusters[j].count
		}
		return clusters[i].rgb.Key() < clusters[j].rgb.Key()
	})

	total := float64(len(pixels))
	dominant := make([]DominantColor, 0, MaxDominantColors)
	for _, c := range clusters {
		if len(dominant) == MaxDominantColors {
			break
		}
		share := float64(c.count) / total
		if share <= dominantMinShare {
			// Sorted descending, nothing after this qualifies.
			break
		}
		dominant = append(dominant, DominantColor{
			R:          c.rgb.R,
			G:          c.rgb.G,
			B:          c.rgb.B,
			Percentage: share,
		})
	}

	return dominant
}
