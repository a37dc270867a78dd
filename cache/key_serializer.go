package cache

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer implements KeySerializer using reflection-based serialization.
// It handles pointers by value, recursive slices, sorted maps and exported struct fields,
// and falls back to JSON for anything else so keys are deterministic across runs.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from a namespace and the call arguments.
func (s *defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	if len(args) == 0 {
		return namespace
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, namespace)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	if rt.Kind() != reflect.Ptr || !rv.IsNil() {
		if key, ok := keyText(v); ok {
			return key
		}
	}

	switch rt.Kind() {
	case reflect.Func:
		// stable within a single process only
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Interface:
		if rv.IsNil() {
			return "interface:nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return "slice" + s.serializeSequence(rv)
	case reflect.Array:
		return "array" + s.serializeSequence(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)
	case reflect.Struct:
		return s.serializeStruct(rv, rt)
	}

	if isBasicKind(rt.Kind()) {
		return fmt.Sprintf("%v", v)
	}

	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeSequence(rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)
	for i := 0; i < length; i++ {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return "[" + strconv.Itoa(length) + "]:{" + strings.Join(parts, ",") + "}"
}

// serializeMap sorts the serialized pairs by key for determinism.
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	type pair struct{ key, value string }

	pairs := make([]pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, pair{
			key:   s.serializeValue(iter.Key().Interface()),
			value: s.serializeValue(iter.Value().Interface()),
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + "=" + p.value
	}

	return fmt.Sprintf("map[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldValue := rv.Field(i)
		if !fieldValue.CanInterface() {
			continue
		}

		parts = append(parts, field.Name+":"+s.serializeValue(fieldValue.Interface()))
	}

	return "struct:{" + strings.Join(parts, ",") + "}"
}

// keyText serializes values that describe themselves. TextMarshaler wins for any
// kind; Stringer is only trusted for structs, where the field walk would otherwise
// lose unexported state (time.Time, for example).
func keyText(v any) (string, bool) {
	switch m := v.(type) {
	case encoding.TextMarshaler:
		text, err := m.MarshalText()
		if err != nil {
			return "", false
		}
		return "text:" + string(text), true
	case fmt.Stringer:
		if reflect.Indirect(reflect.ValueOf(v)).Kind() == reflect.Struct {
			return "str:" + m.String(), true
		}
	}
	return "", false
}

func hasKeyText(rv reflect.Value) bool {
	if !rv.IsValid() || !rv.CanInterface() {
		return false
	}
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return false
	}
	_, ok := keyText(rv.Interface())
	return ok
}

func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}

func isBasicKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// ValidateKeyArg reports whether v can produce a key that is stable across processes.
// Functions, channels and unsafe pointers only serialize to their address, and a nil
// argument usually means the caller forgot to pass one. Structs with unexported
// fields are rejected unless they implement encoding.TextMarshaler or fmt.Stringer,
// since the field walk cannot see that state and distinct values would share a key.
func ValidateKeyArg(v any) error {
	if v == nil {
		return &KeyError{Args: v, Err: fmt.Errorf("missing argument")}
	}
	return validateValue(reflect.ValueOf(v), v)
}

func validateValue(rv reflect.Value, root any) error {
	if hasKeyText(rv) {
		return nil
	}

	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return &KeyError{Args: root, Err: fmt.Errorf("unsupported argument kind %s", rv.Kind())}
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return &KeyError{Args: root, Err: fmt.Errorf("nil %s argument", rv.Kind())}
		}
		return validateValue(rv.Elem(), root)
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := validateNested(rv.Index(i), root); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if err := validateNested(iter.Value(), root); err != nil {
				return err
			}
		}
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			if !rt.Field(i).IsExported() {
				return &KeyError{Args: root, Err: fmt.Errorf("%s has unexported field %s and no text form", rt, rt.Field(i).Name)}
			}
			if err := validateNested(rv.Field(i), root); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateNested allows nil values below the top level; they serialize deterministically.
func validateNested(rv reflect.Value, root any) error {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return nil
		}
	}
	return validateValue(rv, root)
}

// hashedKeySerializer keeps the namespace readable and replaces long argument
// segments with an xxhash digest. Prefix invalidation still works on the namespace.
type hashedKeySerializer struct {
	inner     KeySerializer
	threshold int
}

// NewHashedKeySerializer wraps inner so keys longer than threshold bytes are shortened
// to "<namespace>::h:<xxhash>". A non-positive threshold hashes every key with arguments.
func NewHashedKeySerializer(inner KeySerializer, threshold int) KeySerializer {
	if inner == nil {
		inner = NewDefaultKeySerializer()
	}
	return &hashedKeySerializer{inner: inner, threshold: threshold}
}

func (s *hashedKeySerializer) SerializeKey(namespace string, args ...any) string {
	key := s.inner.SerializeKey(namespace, args...)
	if len(args) == 0 {
		return key
	}
	return ShortenKey(key, s.threshold)
}

// ShortenKey hashes everything after the first separator when key is longer than
// threshold bytes. Keys without a separator are returned unchanged.
func ShortenKey(key string, threshold int) string {
	if threshold > 0 && len(key) <= threshold {
		return key
	}
	namespace, rest, found := strings.Cut(key, KeySeparator)
	if !found || strings.HasPrefix(rest, "h:") {
		return key
	}
	return namespace + KeySeparator + "h:" + strconv.FormatUint(xxhash.Sum64String(key), 16)
}
