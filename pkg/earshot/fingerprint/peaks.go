package fingerprint

import (
	"math"
	"sort"
)

// Peak is one spectral landmark: a band-local magnitude maximum that stands
// out from its frame.
type Peak struct {
	Frame int
	Bin   int
	Time  float64 // seconds from start of audio
	Freq  float64 // Hz
	MagDB float64
}

// Peak-picking tunables. maxPeakFreq caps the analysis band so references and
// queries at different sample rates see the same spectrum slice.
const (
	maxPeakFreq   = 5000.0
	minDBAboveAvg = 3.0
	freqNeighbour = 3
	timeNeighbour = 1
	magEps        = 1e-10
)

// ExtractPeaks picks the strongest bin per logarithmic band per frame, keeps
// those that exceed the frame's average band level and are local maxima in
// their time/frequency neighbourhood, and returns them sorted by time then
// frequency.
func ExtractPeaks(spec [][]float64, sampleRate int) []Peak {
	if len(spec) == 0 || len(spec[0]) == 0 {
		return nil
	}

	nFrames := len(spec)
	nBins := len(spec[0])
	freqRes := float64(sampleRate) / float64(WindowSize)
	frameTime := float64(HopSize) / float64(sampleRate)

	binCap := nBins
	if cap := int(maxPeakFreq / freqRes); cap < binCap {
		binCap = cap
	}
	if binCap < 2 {
		return nil
	}

	// Logarithmic bands: [0,10), [10,20), [20,40), ... up to binCap.
	type band struct{ lo, hi int }
	bands := []band{{0, minInt(10, binCap)}}
	for lo := 10; lo < binCap; lo *= 2 {
		bands = append(bands, band{lo, minInt(lo*2, binCap)})
	}

	peaks := make([]Peak, 0, nFrames)
	for t := 0; t < nFrames; t++ {
		frame := spec[t]

		bandMag := make([]float64, len(bands))
		bandBin := make([]int, len(bands))
		for bi, b := range bands {
			maxMag, maxBin := 0.0, b.lo
			for i := b.lo; i < b.hi; i++ {
				if frame[i] > maxMag {
					maxMag, maxBin = frame[i], i
				}
			}
			bandMag[bi] = maxMag
			bandBin[bi] = maxBin
		}

		var sumDB float64
		for _, mag := range bandMag {
			sumDB += 20 * math.Log10(mag+magEps)
		}
		avgDB := sumDB / float64(len(bandMag))

		for bi, mag := range bandMag {
			if mag <= 0 {
				continue
			}
			magDB := 20 * math.Log10(mag+magEps)
			if magDB < avgDB+minDBAboveAvg {
				continue
			}
			bin := bandBin[bi]
			if !isLocalMax(spec, t, bin, mag, nFrames, binCap) {
				continue
			}
			peaks = append(peaks, Peak{
				Frame: t,
				Bin:   bin,
				Time:  float64(t) * frameTime,
				Freq:  float64(bin) * freqRes,
				MagDB: magDB,
			})
		}
	}

	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Frame == peaks[j].Frame {
			return peaks[i].Bin < peaks[j].Bin
		}
		return peaks[i].Frame < peaks[j].Frame
	})
	return peaks
}

func isLocalMax(spec [][]float64, t, bin int, mag float64, nFrames, nBins int) bool {
	for dt := -timeNeighbour; dt <= timeNeighbour; dt++ {
		ti := t + dt
		if ti < 0 || ti >= nFrames {
			continue
		}
		for df := -freqNeighbour; df <= freqNeighbour; df++ {
			fi := bin + df
			if fi < 0 || fi >= nBins || (dt == 0 && df == 0) {
				continue
			}
			if spec[ti][fi] > mag {
				return false
			}
		}
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
