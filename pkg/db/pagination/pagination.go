package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Pagination struct {
	Page  int `form:"page,default=1" json:"page"`
	Limit int `form:"limit,default=20" json:"limit"`
}

// Normalize clamps page to >= 1 and limit to [1, MaxLimit].
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

type Page[T any] struct {
	Data    []T   `json:"data"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// NewPage wraps one page of rows with its position in the full result set.
func NewPage[T any](data []T, p Pagination, total int64) Page[T] {
	n := p.Normalize()
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:    data,
		Page:    n.Page,
		Limit:   n.Limit,
		Total:   total,
		HasMore: int64(n.Offset()+len(data)) < total,
	}
}
