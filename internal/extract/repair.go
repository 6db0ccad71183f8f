package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Repair strategy names, in the order they are tried.
const (
	StrategyDirect         = "direct"
	StrategyTrimPreamble   = "trim_preamble"
	StrategyCloseTruncated = "close_truncated"
	StrategySalvage        = "salvage"
)

type repairStrategy struct {
	name  string
	parse func(raw string) (map[string]any, error)
}

var repairStrategies = []repairStrategy{
	{StrategyDirect, parseDirect},
	{StrategyTrimPreamble, parseFromBrace},
	{StrategyCloseTruncated, parseTruncated},
	{StrategySalvage, salvageFields},
}

var errNoObject = errors.New("no JSON object in response")

// ParseResponse turns raw service output into a JSON object, trying each
// repair strategy in order. It returns the object and the name of the
// strategy that produced it.
func ParseResponse(raw string) (map[string]any, string, error) {
	var errs []error
	for _, s := range repairStrategies {
		obj, err := s.parse(raw)
		if err == nil {
			return obj, s.name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}
	return nil, "", errors.Join(errs...)
}

func parseObject(s string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNoObject
	}
	return obj, nil
}

func parseDirect(raw string) (map[string]any, error) {
	return parseObject(strings.TrimSpace(raw))
}

// parseFromBrace drops everything before the first '{', which removes
// preambles and opening code fences, then also tries cutting after the last
// '}' to remove closing fences.
func parseFromBrace(raw string) (map[string]any, error) {
	i := strings.Index(raw, "{")
	if i < 0 {
		return nil, errNoObject
	}
	s := raw[i:]
	obj, err := parseObject(s)
	if err == nil {
		return obj, nil
	}
	if j := strings.LastIndex(s, "}"); j >= 0 {
		if obj, err2 := parseObject(s[:j+1]); err2 == nil {
			return obj, nil
		}
	}
	return nil, err
}

func parseTruncated(raw string) (map[string]any, error) {
	i := strings.Index(raw, "{")
	if i < 0 {
		return nil, errNoObject
	}
	closed, err := closeTruncated(raw[i:])
	if err != nil {
		return nil, err
	}
	return parseObject(closed)
}

// safePoint is an output offset where cutting and appending closers for the
// open containers yields well-formed JSON.
type safePoint struct {
	pos   int
	stack []byte
}

// closeTruncated repairs JSON that was cut off mid-stream. It scans s with a
// two-flag state machine (in string, escape pending) while tracking open
// containers, and records a safe point after every opened container, every
// completed value string, every closed container and before every comma.
// Inside an object or array that is itself an array element no safe point is
// recorded until it closes, so a partial element is dropped whole, like a
// partial string. If the text ends inside an open container it is cut at the
// last safe point and the open containers are closed innermost first. Raw
// control characters inside strings are escaped on the way.
func closeTruncated(s string) (string, error) {
	var (
		out      strings.Builder
		inString bool
		escape   bool
		stack    []byte
		// afterColon tracks, per open container, whether the next string in
		// an object is a value rather than a key.
		afterColon []bool
		// element tracks, per open container, whether it is an array element;
		// openElements counts those still open.
		element      []bool
		openElements int
		last         *safePoint
	)

	mark := func() {
		if openElements > 0 {
			return
		}
		last = &safePoint{pos: out.Len(), stack: append([]byte(nil), stack...)}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escape:
				escape = false
				out.WriteByte(c)
			case c == '\\':
				escape = true
				out.WriteByte(c)
			case c == '"':
				inString = false
				out.WriteByte(c)
				top := len(stack) - 1
				isKey := top >= 0 && stack[top] == '{' && !afterColon[top]
				if !isKey {
					mark()
				}
			case c == '\n':
				out.WriteString(`\n`)
			case c == '\r':
				out.WriteString(`\r`)
			case c == '\t':
				out.WriteString(`\t`)
			default:
				out.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			out.WriteByte(c)
		case '{', '[':
			isElem := len(stack) > 0 && stack[len(stack)-1] == '['
			if isElem {
				openElements++
			}
			stack = append(stack, c)
			afterColon = append(afterColon, false)
			element = append(element, isElem)
			out.WriteByte(c)
			mark()
		case '}', ']':
			if len(stack) == 0 {
				return "", errors.New("unbalanced closing bracket")
			}
			if element[len(element)-1] {
				openElements--
			}
			stack = stack[:len(stack)-1]
			afterColon = afterColon[:len(afterColon)-1]
			element = element[:len(element)-1]
			out.WriteByte(c)
			if len(stack) == 0 {
				// Complete object; anything after it is trailing noise.
				return out.String(), nil
			}
			mark()
		case ':':
			if n := len(afterColon); n > 0 {
				afterColon[n-1] = true
			}
			out.WriteByte(c)
		case ',':
			mark()
			if n := len(afterColon); n > 0 {
				afterColon[n-1] = false
			}
			out.WriteByte(c)
		default:
			out.WriteByte(c)
		}
	}

	if last == nil {
		return "", errors.New("no complete value before truncation")
	}

	repaired := out.String()[:last.pos]
	var closers strings.Builder
	for i := len(last.stack) - 1; i >= 0; i-- {
		if last.stack[i] == '{' {
			closers.WriteByte('}')
		} else {
			closers.WriteByte(']')
		}
	}
	return repaired + closers.String(), nil
}

var (
	fieldNames = []string{"product_name", "brand", "expiry_date", "mfg_date", "ingredients", "warnings"}
	listFields = map[string]bool{"ingredients": true, "warnings": true}

	quotedString = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// Per-field salvage patterns: a string or null value, and the opening of a
// list value.
var (
	salvageString    = map[string]*regexp.Regexp{}
	salvageListStart = map[string]*regexp.Regexp{}
)

func init() {
	for _, name := range fieldNames {
		key := `"` + regexp.QuoteMeta(name) + `"\s*:\s*`
		if listFields[name] {
			salvageListStart[name] = regexp.MustCompile(key + `\[`)
		} else {
			salvageString[name] = regexp.MustCompile(key + `(?:"((?:[^"\\]|\\.)*)"|(null))`)
		}
	}
}

// salvageFields pulls individual fields out of text too broken to parse.
// String fields are read from `"key": "value"` pairs; list fields collect
// every complete quoted string after the key's '[' up to the matching ']'
// (or the end), skipping strings that are field names.
func salvageFields(raw string) (map[string]any, error) {
	obj := map[string]any{}
	for _, name := range fieldNames {
		if listFields[name] {
			if items, ok := salvageList(raw, name); ok {
				obj[name] = items
			}
			continue
		}

		m := salvageString[name].FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if m[2] == "null" {
			obj[name] = nil
			continue
		}
		if v, ok := unquote(m[1]); ok {
			obj[name] = v
		}
	}

	if len(obj) == 0 {
		return nil, errors.New("no known fields found")
	}
	return obj, nil
}

func salvageList(raw, name string) ([]any, bool) {
	start := salvageListStart[name].FindStringIndex(raw)
	if start == nil {
		return nil, false
	}
	body := raw[start[1]:]
	if end := strings.Index(body, "]"); end >= 0 {
		body = body[:end]
	}

	items := []any{}
	for _, m := range quotedString.FindAllStringSubmatch(body, -1) {
		v, ok := unquote(m[1])
		if !ok || isFieldName(v) {
			continue
		}
		items = append(items, v)
	}
	return items, true
}

func isFieldName(s string) bool {
	for _, n := range fieldNames {
		if s == n {
			return true
		}
	}
	return false
}

func unquote(body string) (string, bool) {
	var v string
	if err := json.Unmarshal([]byte(`"`+body+`"`), &v); err != nil {
		return "", false
	}
	return v, true
}
