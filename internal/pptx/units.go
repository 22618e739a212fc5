package pptx

import "math"

const (
	emuPerInch = 914400
	emuPerPt   = 12700
)

func inToEMU(in float64) int64 { return int64(math.Round(in * emuPerInch)) }

func ptToEMU(pt float64) int64 { return int64(math.Round(pt * emuPerPt)) }

// hundredths is the 1/100 pt unit used for font sizes and spacing.
func hundredths(pt float64) int64 { return int64(math.Round(pt * 100)) }

// angle converts degrees to 60000ths of a degree in [0, 360).
func angle(deg float64) int64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return int64(math.Round(deg * 60000))
}
