package main

import (
	"fmt"

	"github.com/reflink-next/internal/config"
	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/logger"
	"github.com/reflink-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加演示合作伙伴
	rate := models.NewMoneyFromDecimal(decimal.NewFromFloat(12.50))
	affiliates := []models.Affiliate{
		{
			Name:          "极光传媒",
			Email:         "aurora@example.com",
			AffiliateCode: "AURORA01",
			Status:        constants.AffiliateStatusActive,
		},
		{
			Name:           "星河工作室",
			Email:          "galaxy@example.com",
			AffiliateCode:  "GALAXY01",
			Status:         constants.AffiliateStatusActive,
			CommissionRate: &rate,
		},
		{
			Name:          "晨曦推广组",
			Email:         "dawn@example.com",
			AffiliateCode: "DAWN0001",
			Status:        constants.AffiliateStatusPending,
		},
	}

	for _, aff := range affiliates {
		var existing models.Affiliate
		if err := models.DB.Where("affiliate_code = ?", aff.AffiliateCode).First(&existing).Error; err != nil {
			if err := models.DB.Create(&aff).Error; err != nil {
				stdLog.Printf("Failed to create affiliate %s: %v", aff.AffiliateCode, err)
			} else {
				stdLog.Printf("Created affiliate: %s", aff.AffiliateCode)
			}
		} else {
			stdLog.Printf("Affiliate already exists: %s", aff.AffiliateCode)
		}
	}

	// 取回合作伙伴ID
	affiliateIDs := map[string]uint{}
	var affiliateList []models.Affiliate
	if err := models.DB.Where("affiliate_code IN ?", []string{"AURORA01", "GALAXY01", "DAWN0001"}).Find(&affiliateList).Error; err != nil {
		stdLog.Printf("Failed to load affiliates: %v", err)
	}
	for _, aff := range affiliateList {
		affiliateIDs[aff.AffiliateCode] = aff.ID
	}
	auroraID := affiliateIDs["AURORA01"]
	galaxyID := affiliateIDs["GALAXY01"]

	// 添加推广链接变体
	links := []models.AffiliateLink{
		{AffiliateID: auroraID, Name: "Facebook Campaign", LinkCode: "AURORA01-fb"},
		{AffiliateID: auroraID, Name: "Newsletter", LinkCode: "AURORA01-mail"},
		{AffiliateID: galaxyID, Name: "YouTube Review", LinkCode: "GALAXY01-yt"},
	}
	for _, link := range links {
		if link.AffiliateID == 0 {
			stdLog.Printf("Skip link %s: affiliate missing", link.LinkCode)
			continue
		}
		var existing models.AffiliateLink
		if err := models.DB.Where("link_code = ?", link.LinkCode).First(&existing).Error; err != nil {
			if err := models.DB.Create(&link).Error; err != nil {
				stdLog.Printf("Failed to create link %s: %v", link.LinkCode, err)
			} else {
				stdLog.Printf("Created link: %s", link.LinkCode)
			}
		} else {
			stdLog.Printf("Link already exists: %s", link.LinkCode)
		}
	}

	// 添加演示点击记录
	visitSeedPlans := []struct {
		AffiliateCode string
		Count         int
		Country       string
		DeviceType    string
	}{
		{AffiliateCode: "AURORA01", Count: 5, Country: "US", DeviceType: "desktop"},
		{AffiliateCode: "GALAXY01", Count: 3, Country: "JP", DeviceType: "mobile"},
	}
	for _, plan := range visitSeedPlans {
		affiliateID := affiliateIDs[plan.AffiliateCode]
		if affiliateID == 0 {
			continue
		}
		var count int64
		if err := models.DB.Model(&models.Visit{}).Where("affiliate_id = ?", affiliateID).Count(&count).Error; err != nil {
			stdLog.Printf("Failed to count visits for %s: %v", plan.AffiliateCode, err)
			continue
		}
		if count > 0 {
			stdLog.Printf("Visits already seeded for %s", plan.AffiliateCode)
			continue
		}
		for i := 0; i < plan.Count; i++ {
			visit := models.Visit{
				AffiliateID: affiliateID,
				Referrer:    "https://seed.example.com/post",
				UserAgent:   "seed-agent/1.0",
				Country:     plan.Country,
				DeviceType:  plan.DeviceType,
				ClientIP:    "203.0.113.10",
			}
			if err := models.DB.Create(&visit).Error; err != nil {
				stdLog.Printf("Failed to create visit for %s: %v", plan.AffiliateCode, err)
			}
		}
		if err := models.DB.Model(&models.Affiliate{}).Where("id = ?", affiliateID).
			Update("total_visits", plan.Count).Error; err != nil {
			stdLog.Printf("Failed to update visit counter for %s: %v", plan.AffiliateCode, err)
		}
		stdLog.Printf("Seeded %d visits for %s", plan.Count, plan.AffiliateCode)
	}

	// 添加演示归因与佣金
	referralSeedPlans := []struct {
		AffiliateCode string
		OrderID       string
		OrderAmount   float64
		RatePercent   float64
	}{
		{AffiliateCode: "AURORA01", OrderID: "seed-order-1001", OrderAmount: 1500.00, RatePercent: 10.00},
		{AffiliateCode: "GALAXY01", OrderID: "seed-order-1002", OrderAmount: 320.00, RatePercent: 12.50},
	}
	for _, plan := range referralSeedPlans {
		affiliateID := affiliateIDs[plan.AffiliateCode]
		if affiliateID == 0 {
			continue
		}
		var existing models.Referral
		if err := models.DB.Where("order_id = ?", plan.OrderID).First(&existing).Error; err == nil {
			stdLog.Printf("Referral already exists: %s", plan.OrderID)
			continue
		}

		orderAmount := decimal.NewFromFloat(plan.OrderAmount)
		ratePercent := decimal.NewFromFloat(plan.RatePercent)
		commission := orderAmount.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)

		referral := models.Referral{
			AffiliateID:      affiliateID,
			OrderID:          plan.OrderID,
			OrderAmount:      models.NewMoneyFromDecimal(orderAmount),
			RatePercent:      models.NewMoneyFromDecimal(ratePercent),
			CommissionAmount: models.NewMoneyFromDecimal(commission),
			Status:           constants.ReferralStatusApproved,
			ConversionType:   constants.ConversionTypeOneTime,
		}
		if err := models.DB.Create(&referral).Error; err != nil {
			stdLog.Printf("Failed to create referral %s: %v", plan.OrderID, err)
			continue
		}

		referralID := referral.ID
		entry := models.Commission{
			AffiliateID:    affiliateID,
			ReferralID:     &referralID,
			MemberRef:      plan.OrderID,
			Amount:         models.NewMoneyFromDecimal(commission),
			CommissionType: constants.CommissionTypeOneTime,
			Status:         constants.CommissionStatusUnpaid,
		}
		if err := models.DB.Create(&entry).Error; err != nil {
			stdLog.Printf("Failed to create commission for %s: %v", plan.OrderID, err)
			continue
		}

		if err := models.DB.Model(&models.Affiliate{}).Where("id = ?", affiliateID).Updates(map[string]interface{}{
			"total_referrals":   gorm.Expr("total_referrals + 1"),
			"total_earnings":    gorm.Expr("total_earnings + ?", commission),
			"available_balance": gorm.Expr("available_balance + ?", commission),
		}).Error; err != nil {
			stdLog.Printf("Failed to update aggregates for %s: %v", plan.AffiliateCode, err)
		}
		stdLog.Printf("Seeded referral %s: commission=%s", plan.OrderID, commission.StringFixed(2))
	}

	// 初始化推广配置
	configData := map[string]interface{}{
		"attribution_window_days": 30,
		"attribution_policy":      constants.AttributionPolicyLastTouch,
		"default_commission_rate": "10.00",
		"manual_review":           false,
		"min_payout_amount":       "50.00",
		"leaderboard_metric":      constants.LeaderboardMetricEarnings,
		"leaderboard_cadence_hours": 24,
	}

	var setting models.Setting
	if err := models.DB.Where("key = ?", constants.SettingKeyAffiliateConfig).First(&setting).Error; err != nil {
		setting = models.Setting{
			Key:       constants.SettingKeyAffiliateConfig,
			ValueJSON: models.JSON(configData),
		}
		if err := models.DB.Create(&setting).Error; err != nil {
			stdLog.Printf("Failed to create affiliate config: %v", err)
		} else {
			stdLog.Println("Created affiliate config")
		}
	} else {
		stdLog.Println("Affiliate config already exists")
	}

	fmt.Println("\n✅ Demo data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Affiliates (2 active + 1 pending)")
	fmt.Println("- 3 Affiliate links")
	fmt.Println("- 8 Visits")
	fmt.Println("- 2 Approved referrals with commissions")
	fmt.Println("- Affiliate configuration")
}
