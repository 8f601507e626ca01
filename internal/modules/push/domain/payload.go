package domain

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/spf13/cast"
)

// StringifyData 把任意值的 payload 规整为 map[string]string：nil 为空串，标量转字符串，复合值转 JSON
func StringifyData(data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = StringifyValue(v)
	}
	return out
}

func StringifyValue(v any) string {
	if v == nil || isNilValue(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
