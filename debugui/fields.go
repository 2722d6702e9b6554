package debugui

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"
)

// Field is one read-only row of a struct inspector. Nested structs carry
// Children instead of a Value.
type Field struct {
	Name     string
	Value    string
	Children []Field
}

type fieldInfo struct {
	Name  string
	Index int
}

type reflectionCache struct {
	mu         sync.RWMutex
	fieldCache map[reflect.Type][]fieldInfo
}

func newReflectionCache() *reflectionCache {
	return &reflectionCache{fieldCache: make(map[reflect.Type][]fieldInfo)}
}

func (rc *reflectionCache) fields(t reflect.Type) []fieldInfo {
	rc.mu.RLock()
	cached, ok := rc.fieldCache[t]
	rc.mu.RUnlock()
	if ok {
		return cached
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if cached, ok := rc.fieldCache[t]; ok {
		return cached
	}

	var fields []fieldInfo
	for i := range t.NumField() {
		if f := t.Field(i); f.IsExported() {
			fields = append(fields, fieldInfo{Name: f.Name, Index: i})
		}
	}
	rc.fieldCache[t] = fields
	return fields
}

var globalReflectionCache = newReflectionCache()

var stringerType = reflect.TypeFor[fmt.Stringer]()

// Fields flattens the exported fields of a struct, or pointer to one, into
// inspector rows. Anything else yields nil.
func Fields(v any) []Field {
	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	return structFields(val)
}

func structFields(val reflect.Value) []Field {
	infos := globalReflectionCache.fields(val.Type())
	out := make([]Field, 0, len(infos))
	for _, info := range infos {
		out = append(out, field(info.Name, val.Field(info.Index)))
	}
	return out
}

func field(name string, val reflect.Value) Field {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return Field{Name: name, Value: "nil"}
		}
		val = val.Elem()
	}

	if val.Type().Implements(stringerType) {
		return Field{Name: name, Value: val.Interface().(fmt.Stringer).String()}
	}

	switch val.Kind() {
	case reflect.Struct:
		return Field{Name: name, Children: structFields(val)}
	case reflect.Slice, reflect.Array:
		return Field{Name: name, Value: fmt.Sprintf("[%d items]", val.Len())}
	case reflect.Map:
		return Field{Name: name, Value: fmt.Sprintf("map[%d items]", val.Len())}
	case reflect.Float32, reflect.Float64:
		return Field{Name: name, Value: strconv.FormatFloat(val.Float(), 'f', 2, 64)}
	default:
		return Field{Name: name, Value: fmt.Sprint(val.Interface())}
	}
}
