package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Status is the verdict of a single check.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// severity orders statuses from least to most severe.
func (s Status) severity() int {
	switch s {
	case StatusPass:
		return 0
	case StatusWarn:
		return 1
	default:
		return 2
	}
}

// Value returns the score contribution of the status: pass=1, warn=0.5,
// fail=0.
func (s Status) Value() float64 {
	switch s {
	case StatusPass:
		return 1.0
	case StatusWarn:
		return 0.5
	default:
		return 0
	}
}

// DefaultWeight is the weight a Result carries unless a check overrides it.
const DefaultWeight = 1.0

// Result is the immutable verdict one check produces for one document.
type Result struct {
	Status  Status  `json:"status"`
	Details Details `json:"details"`
	FixHint string  `json:"fix_hint"`
	Weight  float64 `json:"weight"`
}

// Pass returns a passing Result with the default weight.
func Pass(details Details) Result {
	return newResult(StatusPass, details, "")
}

// Warn returns a warning Result with the default weight.
func Warn(details Details, fixHint string) Result {
	return newResult(StatusWarn, details, fixHint)
}

// Fail returns a failing Result with the default weight.
func Fail(details Details, fixHint string) Result {
	return newResult(StatusFail, details, fixHint)
}

// WithWeight returns a copy of r carrying weight, clamped to [0, 1].
func (r Result) WithWeight(weight float64) Result {
	r.Weight = clampWeight(weight)
	return r
}

func newResult(status Status, details Details, fixHint string) Result {
	if details == nil {
		details = Details{}
	}
	return Result{
		Status:  status,
		Details: details,
		FixHint: fixHint,
		Weight:  DefaultWeight,
	}
}

func clampWeight(w float64) float64 {
	switch {
	case w < 0 || math.IsNaN(w):
		return 0
	case w > 1:
		return 1
	default:
		return w
	}
}

// Details carries presentation data for a Result. Values are restricted to
// the variants built by String, Int, Float, Bool and Strings.
type Details map[string]Value

// Value is one detail entry.
type Value struct {
	v any
}

// String wraps a string detail.
func String(s string) Value { return Value{v: s} }

// Int wraps an integer detail.
func Int(n int) Value { return Value{v: n} }

// Float wraps a floating point detail.
func Float(f float64) Value { return Value{v: f} }

// Bool wraps a boolean detail.
func Bool(b bool) Value { return Value{v: b} }

// Strings wraps a list of strings. The slice is copied.
func Strings(ss []string) Value {
	out := make([]string, len(ss))
	copy(out, ss)
	return Value{v: out}
}

// Any returns the wrapped value: string, int, float64, bool, []string, or nil.
func (v Value) Any() any { return v.v }

// String renders the value for logs and messages.
func (v Value) String() string { return fmt.Sprint(v.v) }

// MarshalJSON encodes the wrapped value directly. A whole Float keeps a
// fractional part so that it decodes back as a Float.
func (v Value) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(v.v)
	if err != nil {
		return nil, err
	}
	if _, ok := v.v.(float64); ok && !bytes.ContainsAny(data, ".eE") {
		data = append(data, ".0"...)
	}
	return data, nil
}

var errDetailValue = errors.New("analysis: unsupported detail value")

// UnmarshalJSON decodes one of the detail variants. Integer literals become
// Int, literals with a fraction or exponent Float, and arrays must contain
// only strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch x := raw.(type) {
	case nil:
		*v = Value{}
	case string:
		*v = String(x)
	case bool:
		*v = Bool(x)
	case json.Number:
		return v.decodeNumber(x)
	case []any:
		ss := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("%w: array of %T", errDetailValue, item)
			}
			ss = append(ss, s)
		}
		*v = Value{v: ss}
	default:
		return fmt.Errorf("%w: %T", errDetailValue, raw)
	}
	return nil
}

// decodeNumber keeps integers that fit an int as Int and everything else as
// Float.
func (v *Value) decodeNumber(n json.Number) error {
	if i, err := strconv.ParseInt(n.String(), 10, 0); err == nil {
		*v = Int(int(i))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("%w: %v", errDetailValue, err)
	}
	*v = Float(f)
	return nil
}
