// internal/service/ads/port/trust.go
package port

import "context"

// SubmissionFacts 是信任评估的输入事实，由身份服务在请求里提供。
type SubmissionFacts struct {
	OwnerVerified  bool   `json:"owner_verified"`
	OwnerRole      string `json:"owner_role"` // seller / operator / ...
	ActiveAds      int64  `json:"active_ads"`
	AccountAgeDays int64  `json:"account_age_days"`
}

// TrustEvaluator 判定卖家是否可信（可信 = 有积分时跳过人工审核直接发布）。
// 具体实现是基础设施层的 CEL 规则引擎；规则表达式来自配置，
// 运营可以在不发版的情况下调整自动发布策略。
type TrustEvaluator interface {
	Evaluate(ctx context.Context, facts SubmissionFacts) (bool, error)
}
