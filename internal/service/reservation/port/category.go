// internal/service/reservation/port/category.go
package port

import "souq/internal/service/reservation/domain"

// CategoryConfigSource 提供类目交易配置的只读视图。
// ok 为 false 表示类目未配置，按未开通在线交易处理。
type CategoryConfigSource interface {
	ConfigFor(categoryID string) (cfg domain.CategoryConfig, ok bool)
}
