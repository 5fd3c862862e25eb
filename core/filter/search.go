package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// RowString renders a row as the canonical text that searches scan: its JSON
// encoding with keys sorted and HTML escaping disabled.
func RowString(row Row) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(row); err != nil {
		return fmt.Sprint(map[string]any(row))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// compileSearchPattern compiles a case-insensitive ECMAScript pattern so
// patterns typed for a browser behave the same here.
func compileSearchPattern(pattern string, opts EngineOptions) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript|regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	if opts.RegexTimeout > 0 {
		re.MatchTimeout = opts.RegexTimeout
	}
	return re, nil
}
