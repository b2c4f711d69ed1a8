package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BearerPipelineTest/meta-where/internal/queryir"
)

// DebugSQL inlines params into sql for logs and the compile command.
// The result is for humans only; execute the parameterized form.
//
// Placeholders inside quoted identifiers or string literals are left
// alone. Extra placeholders with no matching param are kept as "?".
func DebugSQL(sql string, params []any) string {
	pieces := queryir.SplitPlaceholders(sql)
	var b strings.Builder
	b.Grow(len(sql))
	b.WriteString(pieces[0])
	for i, piece := range pieces[1:] {
		if i < len(params) {
			b.WriteString(InlineValue(params[i]))
		} else {
			b.WriteByte('?')
		}
		b.WriteString(piece)
	}
	return b.String()
}

// InlineValue renders a parameter as a SQLite literal.
func InlineValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case []byte:
		return InlineValue(string(val))
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int64:
		return fmt.Sprintf("%d", val)
	case int:
		return fmt.Sprintf("%d", val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("'%v'", val)
	}
}
