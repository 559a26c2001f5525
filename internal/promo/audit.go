package promo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/obs"
)

// AuditQuerier lists per-code counters alongside their recorded redemptions.
type AuditQuerier interface {
	ListPromoUsageStats(ctx context.Context) ([]dbgen.ListPromoUsageStatsRow, error)
}

// Drift describes a promo code whose counters disagree with its ledger.
type Drift struct {
	Code           string   `json:"code"`
	UsageCount     int32    `json:"usageCount"`
	UsageLimit     *int32   `json:"usageLimit,omitempty"`
	RecordedUsages int64    `json:"recordedUsages"`
	MaxUserUsage   int32    `json:"maxUserUsage"`
	UserUsageLimit int32    `json:"userUsageLimit"`
	Problems       []string `json:"problems"`
}

// Auditor cross-checks usage counters against usage records. It only reports.
type Auditor struct {
	Q      AuditQuerier
	Logger zerolog.Logger
}

// Run inspects every promo code and returns the ones that drifted.
func (a Auditor) Run(ctx context.Context) ([]Drift, error) {
	if a.Q == nil {
		return nil, errors.New("promo audit: querier not configured")
	}
	rows, err := a.Q.ListPromoUsageStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("promo audit: list stats: %w", err)
	}
	var drifted []Drift
	for _, row := range rows {
		d := inspect(row)
		if obs.PromoUsageDrift != nil {
			obs.PromoUsageDrift.WithLabelValues(row.Code).Set(float64(int64(row.UsageCount) - row.RecordedUsages))
		}
		if len(d.Problems) == 0 {
			continue
		}
		a.Logger.Error().
			Str("promo_code", d.Code).
			Int32("usage_count", d.UsageCount).
			Int64("recorded_usages", d.RecordedUsages).
			Int32("max_user_usage", d.MaxUserUsage).
			Strs("problems", d.Problems).
			Msg("promo usage drift detected")
		drifted = append(drifted, d)
	}
	a.Logger.Info().Int("codes", len(rows)).Int("drifted", len(drifted)).Msg("promo usage audit complete")
	return drifted, nil
}

func inspect(row dbgen.ListPromoUsageStatsRow) Drift {
	d := Drift{
		Code:           row.Code,
		UsageCount:     row.UsageCount,
		RecordedUsages: row.RecordedUsages,
		MaxUserUsage:   row.MaxUserUsage,
		UserUsageLimit: row.UserUsageLimit,
	}
	if row.UsageLimit.Valid {
		limit := row.UsageLimit.Int32
		d.UsageLimit = &limit
		if row.UsageCount > limit {
			d.Problems = append(d.Problems, "usage_count exceeds usage_limit")
		}
	}
	if int64(row.UsageCount) != row.RecordedUsages {
		d.Problems = append(d.Problems, "usage_count differs from recorded usages")
	}
	if row.MaxUserUsage > max(row.UserUsageLimit, 1) {
		d.Problems = append(d.Problems, "per-user usage exceeds user_usage_limit")
	}
	return d
}
