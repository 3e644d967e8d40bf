package db

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// ListParams — фильтры и пагинация списка. Ключи Filter и Sort — имена полей API.
type ListParams struct {
	Filter map[string]interface{}
	Sort   []SortField
	Limit  uint64
	Offset uint64
}

type SortField struct {
	Field string
	Desc  bool
}

// ApplyListParams переносит параметры в запрос, пропуская поля вне allowedMap.
func ApplyListParams(builder sq.SelectBuilder, params ListParams, allowedMap map[string]string) sq.SelectBuilder {
	for jsonField, val := range params.Filter {
		dbCol, ok := allowedMap[jsonField]
		if !ok {
			continue
		}

		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			builder = builder.Where(sq.Eq{dbCol: strings.Split(s, ",")})
		} else {
			builder = builder.Where(sq.Eq{dbCol: val})
		}
	}

	for _, sort := range params.Sort {
		dbCol, ok := allowedMap[sort.Field]
		if !ok {
			continue
		}
		sqlDir := "ASC"
		if sort.Desc {
			sqlDir = "DESC"
		}
		builder = builder.OrderBy(fmt.Sprintf("%s %s", dbCol, sqlDir))
	}

	if params.Limit > 0 {
		builder = builder.Limit(params.Limit)
	}
	if params.Offset > 0 {
		builder = builder.Offset(params.Offset)
	}

	return builder
}
