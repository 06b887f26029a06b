package database

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// SearchColumns are the contact columns matched by a substring search.
var SearchColumns = []string{"first_name", "last_name", "phone_number", "contact_url"}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContactSearch builds a predicate matching rows where any of SearchColumns
// contains term, ignoring case. Both sides are folded with Go's Unicode
// lowercasing. LIKE wildcards in term match literally.
func ContactSearch(term string) sq.Sqlizer {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	or := sq.Or{}
	for _, col := range SearchColumns {
		or = append(or, sq.Expr(fmt.Sprintf(`%s(%s) LIKE ? ESCAPE '\'`, LowerFunc, col), pattern))
	}
	return or
}

// ContactSearchSQL renders ContactSearch to a WHERE fragment and its args.
func ContactSearchSQL(term string) (string, []interface{}, error) {
	sqlStr, args, err := ContactSearch(term).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build SQL for ContactSearch: %w", err)
	}
	return sqlStr, args, nil
}
