package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/reflink-next/internal/config"
	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
)

const (
	affiliateCommissionRateMin      = 0
	affiliateCommissionRateMax      = 100
	affiliateAttributionWindowMin   = 1
	affiliateAttributionWindowMax   = 365
	affiliateLeaderboardCadenceMin  = 0
	affiliateLeaderboardCadenceMax  = 24 * 365
	affiliateMinPayoutAmountMin     = 0
)

// AffiliateSetting 推广归因运行时配置（settings 覆盖 config 默认值）
type AffiliateSetting struct {
	AttributionWindowDays   int     `json:"attribution_window_days"`
	AttributionPolicy       string  `json:"attribution_policy"`
	DefaultCommissionRate   float64 `json:"default_commission_rate"`
	ManualReview            bool    `json:"manual_review"`
	MinPayoutAmount         float64 `json:"min_payout_amount"`
	LeaderboardMetric       string  `json:"leaderboard_metric"`
	LeaderboardCadenceHours int     `json:"leaderboard_cadence_hours"`
}

// AffiliateSettingFromConfig 以 config 默认值构造配置
func AffiliateSettingFromConfig(cfg config.AffiliateConfig) AffiliateSetting {
	return NormalizeAffiliateSetting(AffiliateSetting{
		AttributionWindowDays:   cfg.AttributionWindowDays,
		AttributionPolicy:       cfg.AttributionPolicy,
		DefaultCommissionRate:   cfg.DefaultCommissionRate,
		ManualReview:            cfg.ManualReview,
		MinPayoutAmount:         cfg.MinPayoutAmount,
		LeaderboardMetric:       cfg.LeaderboardMetric,
		LeaderboardCadenceHours: cfg.LeaderboardCadenceHours,
	})
}

// NormalizeAffiliateSetting 归一化推广配置
func NormalizeAffiliateSetting(setting AffiliateSetting) AffiliateSetting {
	if setting.AttributionWindowDays < affiliateAttributionWindowMin {
		setting.AttributionWindowDays = 30
	}
	if setting.AttributionWindowDays > affiliateAttributionWindowMax {
		setting.AttributionWindowDays = affiliateAttributionWindowMax
	}

	policy := strings.ToLower(strings.TrimSpace(setting.AttributionPolicy))
	if policy != constants.AttributionPolicyFirstTouch {
		policy = constants.AttributionPolicyLastTouch
	}
	setting.AttributionPolicy = policy

	setting.DefaultCommissionRate = roundAffiliateDecimal(setting.DefaultCommissionRate)
	if setting.DefaultCommissionRate < affiliateCommissionRateMin {
		setting.DefaultCommissionRate = affiliateCommissionRateMin
	}
	if setting.DefaultCommissionRate > affiliateCommissionRateMax {
		setting.DefaultCommissionRate = affiliateCommissionRateMax
	}

	setting.MinPayoutAmount = roundAffiliateDecimal(setting.MinPayoutAmount)
	if setting.MinPayoutAmount < affiliateMinPayoutAmountMin {
		setting.MinPayoutAmount = affiliateMinPayoutAmountMin
	}

	metric := strings.ToLower(strings.TrimSpace(setting.LeaderboardMetric))
	if metric != constants.LeaderboardMetricReferrals {
		metric = constants.LeaderboardMetricEarnings
	}
	setting.LeaderboardMetric = metric

	if setting.LeaderboardCadenceHours < affiliateLeaderboardCadenceMin {
		setting.LeaderboardCadenceHours = affiliateLeaderboardCadenceMin
	}
	if setting.LeaderboardCadenceHours > affiliateLeaderboardCadenceMax {
		setting.LeaderboardCadenceHours = affiliateLeaderboardCadenceMax
	}
	return setting
}

// ValidateAffiliateSetting 校验推广配置
func ValidateAffiliateSetting(setting AffiliateSetting) error {
	if setting.DefaultCommissionRate < affiliateCommissionRateMin || setting.DefaultCommissionRate > affiliateCommissionRateMax {
		return fmt.Errorf("%w: 默认佣金比例必须在 0-100 之间", ErrAffiliateConfigInvalid)
	}
	if setting.AttributionWindowDays < affiliateAttributionWindowMin || setting.AttributionWindowDays > affiliateAttributionWindowMax {
		return fmt.Errorf("%w: 归因窗口必须在 1-365 天之间", ErrAffiliateConfigInvalid)
	}
	policy := strings.ToLower(strings.TrimSpace(setting.AttributionPolicy))
	if policy != constants.AttributionPolicyLastTouch && policy != constants.AttributionPolicyFirstTouch {
		return fmt.Errorf("%w: 归因策略仅支持 last_touch / first_touch", ErrAffiliateConfigInvalid)
	}
	if setting.MinPayoutAmount < affiliateMinPayoutAmountMin {
		return fmt.Errorf("%w: 最低提现金额不能小于 0", ErrAffiliateConfigInvalid)
	}
	return nil
}

// AffiliateSettingToMap 将推广配置转换为 settings 存储结构
func AffiliateSettingToMap(setting AffiliateSetting) map[string]interface{} {
	normalized := NormalizeAffiliateSetting(setting)
	return map[string]interface{}{
		"attribution_window_days":   normalized.AttributionWindowDays,
		"attribution_policy":        normalized.AttributionPolicy,
		"default_commission_rate":   normalized.DefaultCommissionRate,
		"manual_review":             normalized.ManualReview,
		"min_payout_amount":         normalized.MinPayoutAmount,
		"leaderboard_metric":        normalized.LeaderboardMetric,
		"leaderboard_cadence_hours": normalized.LeaderboardCadenceHours,
	}
}

func affiliateSettingFromJSON(raw models.JSON, fallback AffiliateSetting) AffiliateSetting {
	result := fallback

	if windowRaw, ok := raw["attribution_window_days"]; ok {
		if parsed, err := parseSettingInt(windowRaw); err == nil {
			result.AttributionWindowDays = parsed
		}
	}
	if policyRaw, ok := raw["attribution_policy"]; ok {
		if parsed := parseSettingString(policyRaw); parsed != "" {
			result.AttributionPolicy = parsed
		}
	}
	if rateRaw, ok := raw["default_commission_rate"]; ok {
		if parsed, err := parseSettingFloat(rateRaw); err == nil {
			result.DefaultCommissionRate = parsed
		}
	}
	if reviewRaw, ok := raw["manual_review"]; ok {
		result.ManualReview = parseSettingBool(reviewRaw)
	}
	if minPayoutRaw, ok := raw["min_payout_amount"]; ok {
		if parsed, err := parseSettingFloat(minPayoutRaw); err == nil {
			result.MinPayoutAmount = parsed
		}
	}
	if metricRaw, ok := raw["leaderboard_metric"]; ok {
		if parsed := parseSettingString(metricRaw); parsed != "" {
			result.LeaderboardMetric = parsed
		}
	}
	if cadenceRaw, ok := raw["leaderboard_cadence_hours"]; ok {
		if parsed, err := parseSettingInt(cadenceRaw); err == nil {
			result.LeaderboardCadenceHours = parsed
		}
	}

	return NormalizeAffiliateSetting(result)
}

func normalizeAffiliateSettingMap(value map[string]interface{}) models.JSON {
	fallback := NormalizeAffiliateSetting(AffiliateSetting{
		AttributionWindowDays:   30,
		AttributionPolicy:       constants.AttributionPolicyLastTouch,
		LeaderboardMetric:       constants.LeaderboardMetricEarnings,
		LeaderboardCadenceHours: 168,
	})
	setting := affiliateSettingFromJSON(models.JSON(value), fallback)
	return models.JSON(AffiliateSettingToMap(setting))
}

// GetAffiliateSetting 获取推广设置（settings 优先，空时回退 config 默认）
func (s *SettingService) GetAffiliateSetting(defaults config.AffiliateConfig) (AffiliateSetting, error) {
	fallback := AffiliateSettingFromConfig(defaults)
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyAffiliateConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return affiliateSettingFromJSON(value, fallback), nil
}

// UpdateAffiliateSetting 更新推广设置
func (s *SettingService) UpdateAffiliateSetting(setting AffiliateSetting) (AffiliateSetting, error) {
	normalized := NormalizeAffiliateSetting(setting)
	if err := ValidateAffiliateSetting(normalized); err != nil {
		return normalized, err
	}
	if _, err := s.Update(constants.SettingKeyAffiliateConfig, AffiliateSettingToMap(normalized)); err != nil {
		return normalized, err
	}
	return normalized, nil
}

func roundAffiliateDecimal(value float64) float64 {
	return math.Round(value*100) / 100
}
