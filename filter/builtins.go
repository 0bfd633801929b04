package filter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mapexpr/mapexpr/value"
)

func registerBuiltins(r *Registry) {
	r.Register("trim", filterTrim)
	r.Register("upper", filterUpper)
	r.Register("lower", filterLower)
	r.Register("ucfirst", filterUcfirst)
	r.Register("default", filterDefault)
	r.Register("join", filterJoin)
	r.Register("between", filterBetween)
	r.Register("clamp", filterClamp)
	r.Register("empty_to_null", filterEmptyToNull)
	r.Register("int", filterInt)
	r.Register("float", filterFloat)
	r.Register("bool", filterBool)
	r.Register("string", filterString)
	r.Register("strip_tags", filterStripTags)
}

func filterTrim(in value.Value, _ []value.Value) value.Value {
	s, ok := in.Str()
	if !ok {
		return in
	}
	return value.String(strings.TrimSpace(s))
}

func filterUpper(in value.Value, _ []value.Value) value.Value {
	s, ok := in.Str()
	if !ok {
		return in
	}
	return value.String(strings.ToUpper(s))
}

func filterLower(in value.Value, _ []value.Value) value.Value {
	s, ok := in.Str()
	if !ok {
		return in
	}
	return value.String(strings.ToLower(s))
}

func filterUcfirst(in value.Value, _ []value.Value) value.Value {
	s, ok := in.Str()
	if !ok || s == "" {
		return in
	}
	return value.String(strings.ToUpper(s[:1]) + s[1:])
}

// filterDefault implements the `default:v` filter. The `?? v` syntax is
// not routed through it: the Mapping Executor applies the IR's Default
// field itself, substituting it when the pipeline result is Null or
// Absent.
func filterDefault(in value.Value, args []value.Value) value.Value {
	if !in.IsNull() || len(args) == 0 {
		return in
	}
	return args[0]
}

func filterJoin(in value.Value, args []value.Value) value.Value {
	elems, ok := in.SeqValues()
	if !ok {
		return in
	}
	sep := ""
	if len(args) > 0 {
		if s, ok := args[0].Str(); ok {
			sep = s
		}
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = toDisplayString(e)
	}
	return value.String(strings.Join(parts, sep))
}

func toDisplayString(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.Str()
		return s
	case value.KindInt:
		i, _ := v.Int()
		return strconv.FormatInt(i, 10)
	case value.KindFloat:
		f, _ := v.Float()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case value.KindBool:
		b, _ := v.Bool()
		return strconv.FormatBool(b)
	default:
		return ""
	}
}

func asFloat(v value.Value) (float64, bool) {
	switch v.Kind() {
	case value.KindInt:
		i, _ := v.Int()
		return float64(i), true
	case value.KindFloat:
		f, _ := v.Float()
		return f, true
	default:
		return 0, false
	}
}

// filterBetween returns Bool: true when in (numeric) falls within
// [lo, hi] inclusive (spec.md §4.5 `between:lo:hi`).
func filterBetween(in value.Value, args []value.Value) value.Value {
	if len(args) < 2 {
		return value.Bool(false)
	}
	n, ok := asFloat(in)
	if !ok {
		return value.Bool(false)
	}
	lo, lok := asFloat(args[0])
	hi, hok := asFloat(args[1])
	if !lok || !hok {
		return value.Bool(false)
	}
	return value.Bool(n >= lo && n <= hi)
}

// filterClamp clamps a numeric input into [lo, hi] (spec.md §4.5
// `clamp:lo:hi`), preserving Int vs Float shape of the input.
func filterClamp(in value.Value, args []value.Value) value.Value {
	if len(args) < 2 {
		return in
	}
	lo, lok := asFloat(args[0])
	hi, hok := asFloat(args[1])
	if !lok || !hok {
		return in
	}
	if i, ok := in.Int(); ok {
		n := i
		if float64(n) < lo {
			n = int64(lo)
		}
		if float64(n) > hi {
			n = int64(hi)
		}
		return value.Int(n)
	}
	if f, ok := in.Float(); ok {
		if f < lo {
			f = lo
		}
		if f > hi {
			f = hi
		}
		return value.Float(f)
	}
	return in
}

// filterEmptyToNull maps empty string / empty Seq to Null, per spec.md
// §4.5.1. `false` is never converted unless mode "false" is requested;
// numeric/string zero only convert when mode "zero"/"string_zero" is
// requested. Modes arrive as a single comma-separated string argument,
// e.g. empty_to_null:"zero,string_zero".
func filterEmptyToNull(in value.Value, args []value.Value) value.Value {
	modes := map[string]bool{}
	if len(args) > 0 {
		if s, ok := args[0].Str(); ok {
			for _, m := range strings.Split(s, ",") {
				m = strings.TrimSpace(m)
				if m != "" {
					modes[m] = true
				}
			}
		}
	}

	switch in.Kind() {
	case value.KindString:
		s, _ := in.Str()
		if s == "" {
			return value.Null
		}
		if s == "0" && modes["string_zero"] {
			return value.Null
		}
		return in
	case value.KindSeq:
		if in.Len() == 0 {
			return value.Null
		}
		return in
	case value.KindInt:
		i, _ := in.Int()
		if i == 0 && modes["zero"] {
			return value.Null
		}
		return in
	case value.KindFloat:
		f, _ := in.Float()
		if f == 0 && modes["zero"] {
			return value.Null
		}
		return in
	case value.KindBool:
		b, _ := in.Bool()
		if !b && modes["false"] {
			return value.Null
		}
		return in
	default:
		return in
	}
}

// filterInt implements the `int` cast of spec.md §4.5.1: string parseable
// as integer -> Int; Float truncates toward zero; Bool -> 0/1; Null -> 0.
func filterInt(in value.Value, _ []value.Value) value.Value {
	switch in.Kind() {
	case value.KindInt:
		return in
	case value.KindFloat:
		f, _ := in.Float()
		return value.Int(int64(f)) // truncates toward zero
	case value.KindBool:
		b, _ := in.Bool()
		if b {
			return value.Int(1)
		}
		return value.Int(0)
	case value.KindString:
		s, _ := in.Str()
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return value.Int(i)
		}
		return value.Int(0)
	case value.KindNull:
		return value.Int(0)
	default:
		return value.Int(0)
	}
}

// filterFloat implements the `float` cast: as int but preserves the
// fractional part; comma-decimal is NOT accepted (spec.md §4.5.1).
func filterFloat(in value.Value, _ []value.Value) value.Value {
	switch in.Kind() {
	case value.KindFloat:
		return in
	case value.KindInt:
		i, _ := in.Int()
		return value.Float(float64(i))
	case value.KindBool:
		b, _ := in.Bool()
		if b {
			return value.Float(1)
		}
		return value.Float(0)
	case value.KindString:
		s, _ := in.Str()
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return value.Float(f)
		}
		return value.Float(0)
	case value.KindNull:
		return value.Float(0)
	default:
		return value.Float(0)
	}
}

var truthyStrings = map[string]bool{"1": true, "true": true, "yes": true, "on": true}

// filterBool implements spec.md §4.5.1's bool coercion table verbatim.
func filterBool(in value.Value, _ []value.Value) value.Value {
	switch in.Kind() {
	case value.KindBool:
		return in
	case value.KindString:
		raw, _ := in.Str()
		s := strings.ToLower(strings.TrimSpace(raw))
		if truthyStrings[s] {
			return value.Bool(true)
		}
		return value.Bool(false)
	case value.KindInt:
		i, _ := in.Int()
		return value.Bool(i != 0)
	case value.KindFloat:
		f, _ := in.Float()
		return value.Bool(f != 0)
	case value.KindNull:
		return value.Bool(false)
	default:
		return value.Bool(false)
	}
}

func filterString(in value.Value, _ []value.Value) value.Value {
	switch in.Kind() {
	case value.KindString:
		return in
	case value.KindNull:
		return value.String("")
	default:
		return value.String(toDisplayString(in))
	}
}

var tagRE = regexp.MustCompile(`<[^>]*>`)

func filterStripTags(in value.Value, _ []value.Value) value.Value {
	s, ok := in.Str()
	if !ok {
		return in
	}
	return value.String(tagRE.ReplaceAllString(s, ""))
}
