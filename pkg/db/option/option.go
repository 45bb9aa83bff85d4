package option

import (
	"fmt"
	"strings"

	"virtual-economy/pkg/db/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueryOption func(*gorm.DB) *gorm.DB

type Operator string

const (
	EQ   Operator = "="
	NEQ  Operator = "<>"
	GT   Operator = ">"
	GTE  Operator = ">="
	LT   Operator = "<"
	LTE  Operator = "<="
	IN   Operator = "IN"
	LIKE Operator = "LIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

// LockingUpdate is a gorm scope that appends FOR UPDATE to selects.
func LockingUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func WithLockingUpdate() QueryOption {
	return LockingUpdate
}

// WithSortBy orders by SortBy (created_at when empty). Columns outside Allow
// are ignored when Allow is set.
func WithSortBy(s QuerySortBy) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		column := s.SortBy
		if column == "" {
			column = "created_at"
		}
		if s.Allow != nil && !s.Allow[column] {
			return tx
		}
		return tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: column},
			Desc:   strings.EqualFold(s.OrderBy, "desc"),
		})
	}
}

func ApplyOperator(conds ...Condition) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		for _, c := range conds {
			op := c.Operator
			if op == "" {
				op = EQ
			}
			placeholder := "?"
			if op == IN {
				placeholder = "(?)"
			}
			tx = tx.Where(fmt.Sprintf("%s %s %s", tx.Statement.Quote(c.Field), op, placeholder), c.Value)
		}
		return tx
	}
}

func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		n := p.Normalize()
		return tx.Offset(n.Offset()).Limit(n.Limit)
	}
}
