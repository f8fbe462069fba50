package domain

import (
	"errors"
	"math"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidPercent = errors.New("invalid_percent")
	ErrNoSplits       = errors.New("no_splits")
)

// Split assigns a vendor a percentage of a settled amount.
type Split struct {
	VendorID snowflake.ID
	Percent  float64
}

// VendorShare is one vendor's cut in minor units. FeeShare is the vendor's
// proportional slice of the platform fee, carried for bookkeeping only; it is
// not deducted from Amount again.
type VendorShare struct {
	VendorID snowflake.ID
	Amount   int64
	FeeShare int64
}

// SplitResult always sums exactly to the input total: every rounding residue
// lands in the platform fee, never in a vendor share.
type SplitResult struct {
	Shares      []VendorShare
	PlatformFee int64
}

// Total returns the sum of all shares plus the platform fee.
func (r SplitResult) Total() int64 {
	total := r.PlatformFee
	for _, share := range r.Shares {
		total += share.Amount
	}
	return total
}

// FeeBasis selects how the platform fee of a single-vendor split is computed.
type FeeBasis string

const (
	FeeBasisPercent   FeeBasis = "percent"
	FeeBasisFixed     FeeBasis = "fixed"
	FeeBasisRemainder FeeBasis = "remainder"
)

// SingleSplitConfig describes the platform's take on a single-vendor payment.
type SingleSplitConfig struct {
	Basis      FeeBasis
	FeePercent float64 // FeeBasisPercent
	FixedFee   int64   // FeeBasisFixed
	// VendorAmount is the vendor's fixed take under FeeBasisRemainder; the
	// platform keeps everything above it.
	VendorAmount int64
	MinFee       *int64
	MaxFee       *int64
}

// SingleSplit carves the platform fee out of the total first, clamped to the
// configured bounds and to [0, total]; the vendor receives the exact
// remainder, so fee + vendor == total with no residue.
func SingleSplit(total int64, cfg SingleSplitConfig) (fee, vendorNet int64, err error) {
	switch cfg.Basis {
	case FeeBasisFixed:
		fee = cfg.FixedFee
	case FeeBasisRemainder:
		fee = total - cfg.VendorAmount
	default:
		if cfg.FeePercent < 0 || cfg.FeePercent > 100 {
			return 0, 0, ErrInvalidPercent
		}
		fee = int64(math.Round(float64(total) * cfg.FeePercent / 100))
	}

	if cfg.MinFee != nil && fee < *cfg.MinFee {
		fee = *cfg.MinFee
	}
	if cfg.MaxFee != nil && fee > *cfg.MaxFee {
		fee = *cfg.MaxFee
	}
	if fee < 0 {
		fee = 0
	}
	if fee > total {
		fee = total
	}
	return fee, total - fee, nil
}

// MultiSplitConfig bounds the platform's take on a multi-vendor split.
type MultiSplitConfig struct {
	// PlatformPercent is a floor on the platform take against the gross; the
	// percent-sum gap wins when it is larger.
	PlatformPercent float64
	MinPlatformFee  int64
}

// MultiSplit distributes the total across vendor percentages. Each vendor's
// nominal share rounds down; the platform fee is the larger of the percent-sum
// gap and the configured platform percentage, floored by the minimum fee.
// Vendor shares are rescaled to what remains after the fee, and the rounding
// residue of the rescale is reconciled into the platform fee, so the result
// sums exactly to the total.
func MultiSplit(total int64, splits []Split, cfg MultiSplitConfig) (SplitResult, error) {
	if len(splits) == 0 {
		return SplitResult{}, ErrNoSplits
	}
	if cfg.PlatformPercent < 0 || cfg.PlatformPercent > 100 {
		return SplitResult{}, ErrInvalidPercent
	}

	nominal := make([]int64, len(splits))
	var sumNominal int64
	for i, split := range splits {
		if split.Percent < 0 || split.Percent > 100 {
			return SplitResult{}, ErrInvalidPercent
		}
		nominal[i] = int64(math.Floor(float64(total) * split.Percent / 100))
		sumNominal += nominal[i]
	}

	fee := total - sumNominal
	if pctFee := int64(math.Round(float64(total) * cfg.PlatformPercent / 100)); pctFee > fee {
		fee = pctFee
	}
	if fee < cfg.MinPlatformFee {
		fee = cfg.MinPlatformFee
	}
	if fee < 0 {
		fee = 0
	}
	if fee > total {
		fee = total
	}

	available := total - fee
	result := SplitResult{Shares: make([]VendorShare, 0, len(splits))}
	var allocated int64
	for i, split := range splits {
		var amount int64
		if sumNominal > 0 {
			amount = int64(math.Floor(float64(nominal[i]) * float64(available) / float64(sumNominal)))
		}
		result.Shares = append(result.Shares, VendorShare{
			VendorID: split.VendorID,
			Amount:   amount,
		})
		allocated += amount
	}
	fee += available - allocated

	for i := range result.Shares {
		if sumNominal > 0 {
			result.Shares[i].FeeShare = int64(math.Floor(float64(fee) * float64(nominal[i]) / float64(sumNominal)))
		}
	}
	result.PlatformFee = fee
	return result, nil
}

// RevenueShareResult is the outcome of a full revenue-share computation.
type RevenueShareResult struct {
	Affiliate int64
	Referral  int64
	SplitResult
}

// RevenueShare runs the three-stage waterfall: the affiliate commission comes
// off the total, the referral bonus comes off what remains, and the vendor
// split distributes the rest.
func RevenueShare(total int64, affiliatePercent, referralPercent float64, splits []Split, cfg MultiSplitConfig) (RevenueShareResult, error) {
	if affiliatePercent < 0 || affiliatePercent > 100 || referralPercent < 0 || referralPercent > 100 {
		return RevenueShareResult{}, ErrInvalidPercent
	}

	affiliate := int64(math.Round(float64(total) * affiliatePercent / 100))
	remaining := total - affiliate
	referral := int64(math.Round(float64(remaining) * referralPercent / 100))
	remaining -= referral

	split, err := MultiSplit(remaining, splits, cfg)
	if err != nil {
		return RevenueShareResult{}, err
	}
	return RevenueShareResult{
		Affiliate:   affiliate,
		Referral:    referral,
		SplitResult: split,
	}, nil
}
