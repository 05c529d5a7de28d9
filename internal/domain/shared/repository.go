package shared

// Filter carries the paging, ordering and search options a list query
// accepts. Repositories translate it into SQL; a zero Page or PageSize
// disables paging so reconciliation scans can walk the full set.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns the first page of twenty, newest first.
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}
