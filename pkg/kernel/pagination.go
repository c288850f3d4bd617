package kernel

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// PaginationOptions carries page selection and an optional sort column.
// OrderBy is matched against a per-repository whitelist, never interpolated raw.
type PaginationOptions struct {
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	OrderBy  string        `json:"order_by,omitempty"`
	OrderDir SortDirection `json:"order_dir,omitempty"`
}

// Sanitize clamps page and page size into their valid ranges
func (p PaginationOptions) Sanitize() PaginationOptions {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultPageSize
	}
	if p.OrderDir != SortAsc {
		p.OrderDir = SortDesc
	}
	return p
}

func (p PaginationOptions) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
	Total  int `json:"total"`
	Pages  int `json:"pages"`
}

type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"page"`
	Empty bool `json:"empty"`
}

func NewPaginated[T any](items []T, page, pageSize, total int) *Paginated[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return &Paginated[T]{
		Items: items,
		Page: Page{
			Number: page,
			Size:   pageSize,
			Total:  total,
			Pages:  pages,
		},
		Empty: len(items) == 0,
	}
}

// MapPaginated converts the items of a page while keeping its metadata
func MapPaginated[T, R any](p *Paginated[T], fn func(T) R) *Paginated[R] {
	out := make([]R, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, fn(item))
	}
	return &Paginated[R]{
		Items: out,
		Page:  p.Page,
		Empty: p.Empty,
	}
}
