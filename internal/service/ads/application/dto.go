// internal/service/ads/application/dto.go
package application

import (
	"souq/internal/service/ads/domain"
	"souq/internal/service/ads/port"
)

// SubmitRequest 是提交新广告的命令载体。
// OwnerTrusted 是身份服务直接给出的结论；Facts 是给规则引擎的原始事实，
// 两者任一判定可信即走自动发布。
type SubmitRequest struct {
	OwnerID      string               `json:"ownerId"`
	CategoryID   string               `json:"categoryId"`
	Title        string               `json:"title"`
	Price        float64              `json:"price"`
	OwnerTrusted bool                 `json:"ownerTrusted"`
	Facts        port.SubmissionFacts `json:"facts"`
}

// SubmitResponse 告知调用方广告进入了哪条路径。
type SubmitResponse struct {
	AdID    string        `json:"adId"`
	Status  domain.Status `json:"status"`
	Message string        `json:"message"`
}
