package cwrap

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/internal/abi"
)

// Text renders the object for debugging.
//
// Records print as "{ __ptr = 0x..., name = value, ... }" with one member
// per line; values that are not numbers are wrapped in [[ ]]. Arrays of
// one byte elements and buffers print as their raw bytes. Other arrays
// print one "index = value" line per element.
func (o *Object) Text() (string, error) {
	defer o.rt.leave(o.rt.enter("text"))
	defer runtime.KeepAlive(o)
	return o.text()
}

func (o *Object) String() string {
	s, err := o.Text()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", o.desc.name, err)
	}
	return s
}

func (o *Object) text() (string, error) {
	d := o.desc
	if o.h.done.Load() {
		return "", errors.Released(errors.PhaseRead, d.name)
	}
	switch d.class {
	case ClassRecord:
		var b strings.Builder
		fmt.Fprintf(&b, "{ %s = %#x,\n", KeyPtr, o.Addr())
		for _, m := range d.members {
			v, err := o.get(m.Name)
			if err != nil {
				return "", err
			}
			s, err := textValue(v)
			if err != nil {
				return "", err
			}
			b.WriteString(m.Name)
			b.WriteString(" = ")
			b.WriteString(s)
			b.WriteString(",\n")
		}
		b.WriteString("}")
		return b.String(), nil
	case ClassArray:
		if d.elemSize == 1 {
			data, err := o.bytes(errors.PhaseRead)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
		lines := []string{" = {"}
		for i := 1; i <= int(d.count); i++ {
			v, err := o.get(i)
			if err != nil {
				return "", err
			}
			s, err := textValue(v)
			if err != nil {
				return "", err
			}
			lines = append(lines, "  "+strconv.Itoa(i)+" = "+s+",")
		}
		lines = append(lines, "}")
		return strings.Join(lines, "\n"), nil
	case ClassBuffer:
		data, err := o.bytes(errors.PhaseRead)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	v, err := o.read(0, d)
	if err != nil {
		return "", err
	}
	if s, ok := numberText(v); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// textValue renders one member or element value. Views created for nested
// records and arrays are released once printed.
func textValue(v any) (string, error) {
	if s, ok := numberText(v); ok {
		return s, nil
	}

	var s string
	switch x := v.(type) {
	case nil:
		s = "nil"
	case []byte:
		s = string(x)
	case *Object:
		t, err := x.text()
		x.Release()
		if err != nil {
			return "", err
		}
		s = t
	default:
		s = fmt.Sprint(v)
	}
	return "[[" + strings.ReplaceAll(s, "\x00", `\0`) + "]]", nil
}

// numberText formats any Go number kind in its shortest decimal form.
func numberText(v any) (string, bool) {
	switch x := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case uint, uint8, uint16, uint32, uint64, uintptr:
		u, _ := abi.CoerceToUint64(x)
		return strconv.FormatUint(u, 10), true
	}
	if !abi.IsNumber(v) {
		return "", false
	}
	i, _ := abi.CoerceToInt64(v)
	return strconv.FormatInt(i, 10), true
}
