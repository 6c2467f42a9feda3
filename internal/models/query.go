package models

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/recviewer/internal/common"
)

// ParseSessionQuery reads session list parameters by name. Dates accept
// YYYY-MM-DD or RFC 3339; a date-only "to" covers that whole day.
func ParseSessionQuery(get func(string) string) (SessionQuery, error) {
	var q SessionQuery

	if v := get("from"); v != "" {
		t, _, err := parseTime(v)
		if err != nil {
			return q, common.NewValidationError("from", err.Error())
		}
		q.From = &t
	}
	if v := get("to"); v != "" {
		t, dateOnly, err := parseTime(v)
		if err != nil {
			return q, common.NewValidationError("to", err.Error())
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		q.To = &t
	}
	if v := get("complete"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, common.NewValidationError("complete", "must be a boolean")
		}
		q.CompleteOnly = b
	}
	q.Search = get("search")

	var err error
	if q.Offset, err = parseNonNegative(get("offset")); err != nil {
		return q, common.NewValidationError("offset", err.Error())
	}
	if q.Limit, err = parseNonNegative(get("limit")); err != nil {
		return q, common.NewValidationError("limit", err.Error())
	}
	return q, nil
}

func parseTime(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, errors.New("must be YYYY-MM-DD or RFC 3339")
	}
	return t, false, nil
}

func parseNonNegative(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return n, nil
}
