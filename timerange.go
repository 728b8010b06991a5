/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"reflect"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/itemstore/registry"
)

// now is replaced in tests.
var now = time.Now

// After matches range keys later than t.
func After(t time.Time) RangeCond {
	return RangeCond{op: opGt, values: []any{t}, times: true}
}

// Before matches range keys earlier than t.
func Before(t time.Time) RangeCond {
	return RangeCond{op: opLt, values: []any{t}, times: true}
}

// During matches range keys in [start, end].
func During(start, end time.Time) RangeCond {
	return RangeCond{op: opBetween, values: []any{start, end}, times: true}
}

// InLast matches range keys within the last d.
func InLast(d time.Duration) RangeCond {
	return After(now().Add(-d))
}

// Today matches range keys from local midnight to the next one.
func Today() RangeCond {
	n := now()
	start := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
	return During(start, start.AddDate(0, 0, 1))
}

var (
	timeType     = reflect.TypeOf((*time.Time)(nil)).Elem()
	dateTimeType = reflect.TypeOf((*strfmt.DateTime)(nil)).Elem()
	dateType     = reflect.TypeOf((*strfmt.Date)(nil)).Elem()
)

// timeValue converts t to the representation of the range key field:
// time fields take it as is, string fields RFC 3339 text, integer fields
// Unix seconds. Other fields get t unchanged and fail to encode.
func timeValue(s *registry.TableSchema, attr string, v any) any {
	t, ok := v.(time.Time)
	if !ok || s.Plan == nil {
		return v
	}
	f, ok := s.Plan.Field(attr)
	if !ok {
		return v
	}
	ft := f.Type
	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	switch {
	case ft == timeType:
		return t
	case ft == dateTimeType:
		return strfmt.DateTime(t)
	case ft == dateType:
		return strfmt.Date(t)
	}
	switch ft.Kind() {
	case reflect.String:
		return t.UTC().Format(time.RFC3339)
	case reflect.Int, reflect.Int32, reflect.Int64:
		return t.Unix()
	}
	return v
}
