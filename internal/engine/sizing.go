package engine

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// ClampVolume bounds a raw volume to the symbol's min/max and rounds it
// to the nearest multiple of the volume step
func ClampVolume(v float64, snap MarketSnapshot) float64 {
	v = math.Max(snap.MinVolume, math.Min(snap.MaxVolume, v))
	if snap.VolumeStep > 0 {
		v = math.Round(v/snap.VolumeStep) * snap.VolumeStep
	}
	return v
}

// ManualVolume interprets the template volume as-is, after clamp/round
func ManualVolume(tpl OrderTemplate, snap MarketSnapshot) (float64, error) {
	if tpl.Volume <= 0 {
		return 0, fmt.Errorf("%w: template volume %.4f", ErrNonPositiveVolume, tpl.Volume)
	}
	return ClampVolume(tpl.Volume, snap), nil
}

// FixedRiskVolume sizes the order so that a fill at entry stopped out at
// sl loses approximately the template's fixed risk amount:
//
//	volume = risk / (|entry - sl| * contract_size)
func FixedRiskVolume(tpl OrderTemplate, entry, sl float64, snap MarketSnapshot) (float64, error) {
	if tpl.FixedRiskAmount <= 0 {
		return 0, fmt.Errorf("%w: %.2f", ErrNonPositiveRiskAmount, tpl.FixedRiskAmount)
	}
	distance := math.Abs(entry - sl)
	if distance <= 0 {
		return 0, fmt.Errorf("%w: entry %.5f, stop %.5f", ErrZeroPriceDistance, entry, sl)
	}
	raw := tpl.FixedRiskAmount / (distance * snap.ContractSize)
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
		return 0, fmt.Errorf("%w: computed %.8f", ErrNonPositiveVolume, raw)
	}
	return ClampVolume(raw, snap), nil
}

// BreakevenVolume solves for the uniform per-order volume such that,
// after adding batchCount orders of that size at entryPrice, the blended
// position's breakeven coincides with slPrice: a retrace to the new stop
// nets the combined position to zero instead of a loss.
//
//	v2 = -((sl - avg_entry) * total_volume) / (batchCount * (sl - entry))
//
// A zero denominator or a non-positive raw volume means the batch cannot
// be protected; the sign is checked before clamping so an infeasible
// solution is never silently turned into the minimum volume.
func BreakevenVolume(existing []broker.Position, slPrice, entryPrice float64, batchCount int, snap MarketSnapshot) (float64, error) {
	if len(existing) == 0 || batchCount <= 0 {
		return 0, fmt.Errorf("%w: no existing positions or empty batch", ErrBreakevenInfeasible)
	}

	totalVolume := 0.0
	weighted := 0.0
	for _, p := range existing {
		totalVolume += p.Volume
		weighted += p.EntryPrice * p.Volume
	}
	if totalVolume <= 0 {
		return 0, fmt.Errorf("%w: total existing volume %.4f", ErrBreakevenInfeasible, totalVolume)
	}
	avgEntry := weighted / totalVolume

	numerator := (slPrice - avgEntry) * totalVolume
	denominator := float64(batchCount) * (slPrice - entryPrice)
	if denominator == 0 {
		return 0, fmt.Errorf("%w: stop price equals entry price", ErrBreakevenInfeasible)
	}

	raw := -numerator / denominator
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
		return 0, fmt.Errorf("%w: computed volume %.4f", ErrBreakevenInfeasible, raw)
	}
	return ClampVolume(raw, snap), nil
}
