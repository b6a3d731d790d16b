package service

// MaxBatchSize 是批量更新单次调用的条目上限，更大的批次由调用方拆分。
const MaxBatchSize = 50

// 批量更新的逐条错误码，与 HTTP 错误码语义保持一致。
const (
	BatchErrNotFound   = "NOT_FOUND"
	BatchErrValidation = "VALIDATION_ERROR"
)

// BatchError 描述批量更新中单条失败的条目。
// 预提交校验失败的条目不影响其余条目的原子提交。
type BatchError struct {
	ID      uint   `json:"id"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

// Pagination 描述列表查询的分页参数，Normalize 后保证取值安全。
type Pagination struct {
	Page  int
	Limit int
}

// Normalize 约束分页参数：页码从 1 开始，limit 默认 20、上限 100。
func (p *Pagination) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

// Offset 返回当前分页对应的偏移量。
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages 根据总数计算页数。
func (p Pagination) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	pages := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		pages++
	}
	return pages
}
