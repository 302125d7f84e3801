package fingerprint

import (
	"math"

	"github.com/earshot/earshot/pkg/earshot"
)

// Pairing tunables. Frequencies are quantized in absolute Hz bands rather
// than bin indices so that references and queries captured at different
// sample rates hash to the same addresses.
const (
	fanOut     = 6
	minDeltaMs = 10
	maxDeltaMs = 15000
	freqBandHz = 10.0

	bandBits  = 12
	deltaBits = 14
)

// pairAddress packs an anchor/target peak pair into a 38-bit address:
// [anchor band | target band | delta ms].
func pairAddress(anchor, target Peak) (int64, bool) {
	anchorBand := int64(math.Floor(anchor.Freq/freqBandHz + 0.5))
	targetBand := int64(math.Floor(target.Freq/freqBandHz + 0.5))
	deltaMs := int64(math.Round((target.Time - anchor.Time) * 1000))

	if deltaMs < minDeltaMs || deltaMs > maxDeltaMs {
		return 0, false
	}
	if anchorBand >= 1<<bandBits || targetBand >= 1<<bandBits {
		return 0, false
	}

	return anchorBand<<(bandBits+deltaBits) | targetBand<<deltaBits | deltaMs, true
}

// HashPeaks produces the fingerprint set for time-sorted peaks using a
// fan-out of subsequent peaks per anchor. The offset is the anchor time in
// seconds.
func HashPeaks(peaks []Peak) []earshot.Fingerprint {
	fps := make([]earshot.Fingerprint, 0, len(peaks)*fanOut/2)
	for i := range peaks {
		paired := 0
		for j := i + 1; j < len(peaks) && paired < fanOut; j++ {
			addr, ok := pairAddress(peaks[i], peaks[j])
			if !ok {
				continue
			}
			fps = append(fps, earshot.Fingerprint{Hash: addr, Offset: peaks[i].Time})
			paired++
		}
	}
	return fps
}
