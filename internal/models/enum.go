package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strconv"
)

// ordinalCodec maps a closed set of symbolic values to the integer codes
// stored in the database. The table is the single source of truth, so
// reordering constant declarations cannot shift stored values.
type ordinalCodec[T ~string] struct {
	kind     string
	ordinals map[T]int64
	values   map[int64]T
}

func newOrdinalCodec[T ~string](kind string, ordinals map[T]int64) ordinalCodec[T] {
	values := make(map[int64]T, len(ordinals))
	for v, n := range ordinals {
		if _, dup := values[n]; dup {
			panic(fmt.Sprintf("%s: duplicate ordinal %d", kind, n))
		}
		values[n] = v
	}
	return ordinalCodec[T]{kind: kind, ordinals: ordinals, values: values}
}

func (c ordinalCodec[T]) valid(v T) bool {
	_, ok := c.ordinals[v]
	return ok
}

func (c ordinalCodec[T]) ordinal(v T) (int64, error) {
	n, ok := c.ordinals[v]
	if !ok {
		return 0, fmt.Errorf("invalid %s %q", c.kind, string(v))
	}
	return n, nil
}

func (c ordinalCodec[T]) fromOrdinal(n int64) (T, error) {
	v, ok := c.values[n]
	if !ok {
		return "", fmt.Errorf("unknown %s ordinal %d", c.kind, n)
	}
	return v, nil
}

func (c ordinalCodec[T]) parse(s string) (T, error) {
	v := T(s)
	if !c.valid(v) {
		return "", fmt.Errorf("invalid %s %q", c.kind, s)
	}
	return v, nil
}

// names returns the symbolic values ordered by ordinal.
func (c ordinalCodec[T]) names() []string {
	out := make([]string, 0, len(c.ordinals))
	for v := range c.ordinals {
		out = append(out, string(v))
	}
	sort.Slice(out, func(i, j int) bool {
		return c.ordinals[T(out[i])] < c.ordinals[T(out[j])]
	})
	return out
}

func (c ordinalCodec[T]) value(v T) (driver.Value, error) {
	return c.ordinal(v)
}

// scan accepts what database/sql drivers hand back for integer columns.
// NULL scans to the zero value, which validation reports as missing.
func (c ordinalCodec[T]) scan(src any) (T, error) {
	switch s := src.(type) {
	case nil:
		return "", nil
	case int64:
		return c.fromOrdinal(s)
	case int32:
		return c.fromOrdinal(int64(s))
	case int:
		return c.fromOrdinal(int64(s))
	case []byte:
		return c.scanText(string(s))
	case string:
		return c.scanText(s)
	}
	return "", fmt.Errorf("cannot scan %T into %s", src, c.kind)
}

func (c ordinalCodec[T]) scanText(s string) (T, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", fmt.Errorf("cannot scan %q into %s: %w", s, c.kind, err)
	}
	return c.fromOrdinal(n)
}
