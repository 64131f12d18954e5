package result

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FormatValue renders a cell for display. Missing cells render empty,
// decimals without exponent, and dates without a clock when they have none.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
