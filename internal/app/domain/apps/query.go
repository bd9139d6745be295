package apps

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Listing defaults.
const (
	DefaultLimit     = 10
	DefaultSkip      = 0
	DefaultSortField = FieldRating
)

// SortOrder is the direction of a sort directive.
type SortOrder int

const (
	Ascending  SortOrder = 1
	Descending SortOrder = -1
)

// ParseSortOrder maps "asc" to Ascending and everything else to Descending.
func ParseSortOrder(raw string) SortOrder {
	if raw == "asc" {
		return Ascending
	}
	return Descending
}

func (o SortOrder) String() string {
	if o == Ascending {
		return "asc"
	}
	return "desc"
}

// ListParams are the normalized listing request parameters.
type ListParams struct {
	Limit     int64
	Skip      int64
	SortField string
	SortOrder SortOrder
	Search    string
}

// DefaultListParams returns the parameters used when a request sets nothing.
func DefaultListParams() ListParams {
	return ListParams{
		Limit:     DefaultLimit,
		Skip:      DefaultSkip,
		SortField: DefaultSortField,
		SortOrder: Descending,
	}
}

// ParseListParams reads limit, skip, sort, order and search from a query
// string. Missing or malformed values take their defaults.
func ParseListParams(q url.Values) ListParams {
	p := DefaultListParams()

	if n, ok := parseInt(q.Get("limit")); ok && n > 0 {
		p.Limit = n
	}
	if n, ok := parseInt(q.Get("skip")); ok && n >= 0 {
		p.Skip = n
	}
	if sort := q.Get("sort"); sort != "" {
		p.SortField = sort
	}
	p.SortOrder = ParseSortOrder(q.Get("order"))
	p.Search = q.Get("search")
	return p
}

func parseInt(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Filter selects the records a listing matches. A zero Filter matches every
// record.
type Filter struct {
	// TitleContains matches titles containing the term, ignoring case.
	TitleContains string
}

// MatchAll reports whether the filter selects every record.
func (f Filter) MatchAll() bool {
	return f.TitleContains == ""
}

// Pattern returns the title pattern with regular expression metacharacters
// escaped, so the search term is matched literally.
func (f Filter) Pattern() string {
	return regexp.QuoteMeta(f.TitleContains)
}

// Matches reports whether app satisfies the filter.
func (f Filter) Matches(app App) bool {
	if f.MatchAll() {
		return true
	}
	return strings.Contains(strings.ToLower(app.Title()), strings.ToLower(f.TitleContains))
}

// Sort is a single-key sort directive.
type Sort struct {
	Field string
	Order SortOrder
}

// ListQuery is the structured query handed to the store: filter, sort, then
// skip followed by limit, projected to Fields.
type ListQuery struct {
	Filter Filter
	Sort   Sort
	Skip   int64
	Limit  int64
	Fields []string
}

// Query builds the store query for p.
func (p ListParams) Query() ListQuery {
	field := p.SortField
	if field == "" {
		field = DefaultSortField
	}
	return ListQuery{
		Filter: Filter{TitleContains: p.Search},
		Sort:   Sort{Field: field, Order: p.SortOrder},
		Skip:   p.Skip,
		Limit:  p.Limit,
		Fields: ListFields,
	}
}
