package score

import (
	"math"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/samber/lo"
)

const (
	technicalADXWeight    = 0.4
	technicalRSIWeight    = 0.3
	technicalVolumeWeight = 0.3
	strongADX             = 50.0
	fullVolumeRatio       = 2.0
)

// TechnicalComposite derives a 0..1 composite when no final_score column is
// supplied: trend strength, RSI distance from the extremes and volume
// participation.
func TechnicalComposite(snapshot core.IndicatorSnapshot, volume float64) float64 {
	if !snapshot.Defined() {
		return 0
	}

	trend := lo.Clamp(snapshot.ADX/strongADX, 0, 1)
	room := lo.Clamp(1-math.Abs(snapshot.RSI-50)/50, 0, 1)
	participation := lo.Clamp(snapshot.VolumeRatio(volume)/fullVolumeRatio, 0, 1)

	return technicalADXWeight*trend + technicalRSIWeight*room + technicalVolumeWeight*participation
}
