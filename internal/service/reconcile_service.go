package service

import (
	"time"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/repository"
)

const reconcileBatchSize = 200

// ReconcileService 缓存聚合对账服务
// 账本（Commission/Referral/Visit）是余额的唯一事实来源，
// 档案上的缓存列只是物化视图：对账以账本为准回写并报告漂移。
type ReconcileService struct {
	repo         repository.AffiliateRepository
	auditService *AuditService
}

// NewReconcileService 创建对账服务
func NewReconcileService(repo repository.AffiliateRepository, auditService *AuditService) *ReconcileService {
	return &ReconcileService{
		repo:         repo,
		auditService: auditService,
	}
}

// ReconcileDrift 单个合作伙伴的漂移明细
type ReconcileDrift struct {
	AffiliateID     uint   `json:"affiliate_id"`
	AffiliateCode   string `json:"affiliate_code"`
	CachedEarnings  string `json:"cached_earnings"`
	LedgerEarnings  string `json:"ledger_earnings"`
	CachedBalance   string `json:"cached_balance"`
	LedgerBalance   string `json:"ledger_balance"`
	CachedReferrals int64  `json:"cached_referrals"`
	LedgerReferrals int64  `json:"ledger_referrals"`
	CachedVisits    int64  `json:"cached_visits"`
	LedgerVisits    int64  `json:"ledger_visits"`
}

// ReconcileReport 对账结果
type ReconcileReport struct {
	Checked int              `json:"checked"`
	Drifted int              `json:"drifted"`
	Items   []ReconcileDrift `json:"items"`
}

// ReconcileTotals 全量重算缓存聚合并修正漂移
func (s *ReconcileService) ReconcileTotals() (ReconcileReport, error) {
	report := ReconcileReport{Items: []ReconcileDrift{}}
	if s.repo == nil {
		return report, nil
	}

	page := 1
	for {
		rows, _, err := s.repo.List(repository.AffiliateListFilter{Page: page, PageSize: reconcileBatchSize})
		if err != nil {
			return report, err
		}
		if len(rows) == 0 {
			break
		}

		ids := make([]uint, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		statsMap, err := s.repo.GetStatsBatch(ids)
		if err != nil {
			return report, err
		}

		now := time.Now()
		for _, affiliate := range rows {
			report.Checked++
			agg := statsMap[affiliate.ID]
			ledgerEarnings := agg.TotalCommission.Round(2)
			ledgerBalance := agg.UnpaidCommission.Round(2)

			drifted := !affiliate.TotalEarnings.Decimal.Round(2).Equal(ledgerEarnings) ||
				!affiliate.AvailableBalance.Decimal.Round(2).Equal(ledgerBalance) ||
				affiliate.TotalReferrals != agg.ReferralCount ||
				affiliate.TotalVisits != agg.VisitCount
			if !drifted {
				continue
			}

			report.Drifted++
			report.Items = append(report.Items, ReconcileDrift{
				AffiliateID:     affiliate.ID,
				AffiliateCode:   affiliate.AffiliateCode,
				CachedEarnings:  affiliate.TotalEarnings.Decimal.StringFixed(2),
				LedgerEarnings:  ledgerEarnings.StringFixed(2),
				CachedBalance:   affiliate.AvailableBalance.Decimal.StringFixed(2),
				LedgerBalance:   ledgerBalance.StringFixed(2),
				CachedReferrals: affiliate.TotalReferrals,
				LedgerReferrals: agg.ReferralCount,
				CachedVisits:    affiliate.TotalVisits,
				LedgerVisits:    agg.VisitCount,
			})

			if err := s.repo.UpdateCachedTotals(affiliate.ID, map[string]interface{}{
				"total_earnings":    models.NewMoneyFromDecimal(ledgerEarnings),
				"available_balance": models.NewMoneyFromDecimal(ledgerBalance),
				"total_referrals":   agg.ReferralCount,
				"total_visits":      agg.VisitCount,
				"updated_at":        now,
			}); err != nil {
				return report, err
			}
		}

		if len(rows) < reconcileBatchSize {
			break
		}
		page++
	}

	s.auditService.Record(SystemActor(), constants.AuditActionTotalsReconciled,
		map[string]interface{}{
			"checked": report.Checked,
			"drifted": report.Drifted,
		},
		"",
	)
	return report, nil
}
