package service

import (
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// paginate applies page to q. A zero limit returns every row.
func paginate(q *gorm.DB, page types.PageRequest) *gorm.DB {
	if page.Limit <= 0 {
		return q
	}
	return q.Limit(page.Limit).Offset(page.Offset())
}
