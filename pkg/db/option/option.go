// Package option carries composable gorm query options used by repositories.
package option

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/qzpay/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type optionFunc func(*gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// Operator is a comparison operator for ApplyOperator conditions.
type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// Condition is a single field comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a comparison condition to the query.
func ApplyOperator(cond Condition) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(cond.Field) == "" {
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
	})
}

// ApplyPagination applies cursor pagination, fetching one extra row so the
// caller can detect a next page.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		size := p.PageSize
		if size <= 0 {
			size = 10
		}
		db = db.Limit(size + 1)

		token := strings.TrimSpace(p.PageToken)
		if token == "" {
			return db
		}
		cursor, err := pagination.DecodeCursor(token)
		if err != nil || cursor == nil {
			return db
		}
		if cursor.CreatedAt != "" {
			db = db.Where("created_at <= ?", cursor.CreatedAt)
		}
		if cursor.ID != "" {
			db = db.Where("id < ?", cursor.ID)
		}
		return db
	})
}

type SortBy struct {
	Field string
	Order string
}

// WithSortBy orders the query by an allowed column.
func WithSortBy(sort SortBy) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if sort.Field == "" {
			return db
		}
		return db.Order(fmt.Sprintf("%s %s", sort.Field, sort.Order))
	})
}

// WithQuerySortBy validates user-supplied sort parameters against an allowlist.
func WithQuerySortBy(field, order string, allowed map[string]bool) SortBy {
	field = strings.TrimSpace(field)
	if field == "" || !allowed[field] {
		field = "created_at"
	}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "asc":
		order = "asc"
	default:
		order = "desc"
	}

	return SortBy{Field: field, Order: order}
}
