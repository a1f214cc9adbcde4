// internal/llm/normalize.go
package llm

import (
	"fmt"
	"strings"
)

// Normalize flattens a provider payload to plain text so downstream report
// code never sees provider-specific shapes. Rules apply in priority order:
// a fragment list joins its textual fragments with single spaces, a
// plain-text payload returns its text, a raw string payload is used as is,
// and anything else is stringified. Normalize never fails; unrecognized
// shapes fall through to stringification.
func Normalize(resp *ProviderResponse) string {
	if resp == nil {
		return ""
	}

	switch resp.Kind {
	case ResponseFragmentList:
		return joinTextFragments(resp.Fragments)
	case ResponsePlainText:
		return resp.Text
	}

	if resp.Text != "" {
		return resp.Text
	}
	if s, ok := resp.Raw.(string); ok {
		return s
	}
	if resp.Raw == nil {
		return ""
	}
	return fmt.Sprintf("%v", resp.Raw)
}

// joinTextFragments concatenates the text of textual fragments with single
// spaces. Fragments of any other type are skipped.
func joinTextFragments(fragments []Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Type == "text" || (f.Type == "" && f.Text != "") {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, " ")
}
