// internal/service/feature/domain/upgrade.go
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Type 定义付费可见性升级的种类。
type Type string

const (
	TypePinned          Type = "PINNED"           // 类目页置顶
	TypeTopSearch       Type = "TOP_SEARCH"       // 搜索结果置顶
	TypeFeaturedSection Type = "FEATURED_SECTION" // 首页精选栏
	TypeVideo           Type = "VIDEO"            // 视频展示位
)

// ParseType 把外部传入的字符串收敛到封闭的枚举集合。
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypePinned, TypeTopSearch, TypeFeaturedSection, TypeVideo:
		return t, nil
	default:
		return "", fmt.Errorf("unknown feature type: %q", s)
	}
}

// Upgrade 是附着在一个广告上的限时可见性升级。
// 同一个广告、同一种类型，任意时刻至多一条处于激活状态。
//
// IsActive 只是 endAt > now 的缓存：清扫负责把它落成 false，
// 读路径（IsCurrentlyActive）永远直接看 EndAt，
// 所以清扫滞后最多让列表页多展示一会儿，不会让过期升级通过在线检查。
type Upgrade struct {
	ID        string
	AdID      string
	Type      Type
	StartAt   time.Time
	EndAt     time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUpgrade 创建一条新的升级记录，从 now 起生效。
func NewUpgrade(id, adID string, featureType Type, durationDays int, now time.Time) (*Upgrade, error) {
	if id == "" || adID == "" {
		return nil, errors.New("cannot create upgrade with empty required fields")
	}
	if durationDays <= 0 {
		return nil, errors.New("upgrade duration must be positive")
	}

	return &Upgrade{
		ID:        id,
		AdID:      adID,
		Type:      featureType,
		StartAt:   now,
		EndAt:     now.AddDate(0, 0, durationDays),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Extend 叠加续费：在 max(now, 当前 EndAt) 的基础上延长。
// 升级是叠加而不是覆盖重置：先买 7 天再买 7 天等于 14 天。
func (u *Upgrade) Extend(durationDays int, now time.Time) error {
	if durationDays <= 0 {
		return errors.New("upgrade duration must be positive")
	}
	base := u.EndAt
	if base.Before(now) {
		base = now
	}
	u.EndAt = base.AddDate(0, 0, durationDays)
	u.IsActive = true
	u.UpdatedAt = now
	return nil
}

// IsCurrentlyActive 是升级是否生效的权威判定。
func (u *Upgrade) IsCurrentlyActive(now time.Time) bool {
	return u.IsActive && u.EndAt.After(now)
}
