package tools

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Date operations.
const (
	opCurrentDate = "current_date"
	opCurrentTime = "current_time"
	opDateDiff    = "date_diff"
	opAddDays     = "add_days"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

func (e *Executor) dateCalculator(args map[string]any) (domain.ToolResult, error) {
	op, err := stringArg(args, "operation")
	if err != nil {
		return domain.ToolResult{}, err
	}

	switch op {
	case opCurrentDate:
		return ok("Current date: " + e.now().Format(dateLayout)), nil
	case opCurrentTime:
		return ok("Current time: " + e.now().Format(dateTimeLayout)), nil
	case opDateDiff:
		d1, err := dateArg(args, "date1")
		if err != nil {
			return dateError(err), nil
		}
		d2, err := dateArg(args, "date2")
		if err != nil {
			return dateError(err), nil
		}
		days := civilDays(d1, d2)
		if days < 0 {
			days = -days
		}
		return ok(fmt.Sprintf("Date difference: %d days", days)), nil
	case opAddDays:
		d1, err := dateArg(args, "date1")
		if err != nil {
			return dateError(err), nil
		}
		days, err := intArg(args, "days")
		if err != nil {
			return dateError(err), nil
		}
		return ok("Result date: " + d1.AddDate(0, 0, days).Format(dateLayout)), nil
	default:
		return failed(DateCalculator, "Unknown date operation"), nil
	}
}

// civilDays counts whole days from d1 to d2. Both are UTC midnights, so the
// Unix seconds divide exactly; time.Duration would saturate past 292 years.
func civilDays(d1, d2 time.Time) int64 {
	return (d2.Unix() - d1.Unix()) / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60

func dateError(err error) domain.ToolResult {
	return failed(DateCalculator, "Date calculation error: "+err.Error())
}

func dateArg(args map[string]any, key string) (time.Time, error) {
	s, err := stringArg(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q does not match YYYY-MM-DD", key, s)
	}
	return t, nil
}

// intArg accepts the numeric shapes JSON decoding and callers produce.
func intArg(args map[string]any, key string) (int, error) {
	v, found := args[key]
	if !found || v == nil {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}
