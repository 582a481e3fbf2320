// Package eps projects raw external profile source documents into the flat
// normalized field map the enrichment engine works with.
package eps

import "strings"

// The walkers below never fail: a missing path, a wrong-typed node, or an
// empty sequence all read as "no data". That keeps Normalize total no matter
// how malformed the source document is.

// seq returns doc[key] as a non-empty slice, or nil.
func seq(doc map[string]any, key string) []any {
	if doc == nil {
		return nil
	}
	s, ok := doc[key].([]any)
	if !ok || len(s) == 0 {
		return nil
	}
	return s
}

// rec returns v as a map, or nil.
func rec(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// str returns doc[key] as a trimmed string, or "".
func str(doc map[string]any, key string) string {
	if doc == nil {
		return ""
	}
	s, _ := doc[key].(string)
	return strings.TrimSpace(s)
}

// strItem coerces a sequence element to a trimmed string. Elements may be
// plain strings or records carrying a "name" (language/certification lists
// mix both shapes in the wild).
func strItem(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if s := str(t, "name"); s != "" {
			return s
		}
		return str(t, "title")
	default:
		return ""
	}
}

// strSeq returns doc[key] as a slice of non-empty strings, or nil.
func strSeq(doc map[string]any, key string) []string {
	items := seq(doc, key)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, v := range items {
		if s := strItem(v); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// recSeq returns doc[key] as a slice of records, dropping non-record
// elements, or nil.
func recSeq(doc map[string]any, key string) []map[string]any {
	items := seq(doc, key)
	if items == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, v := range items {
		if m := rec(v); m != nil {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// findProfile scans social profile entries for the first one whose network
// matches (case-insensitive). First match wins when duplicates exist.
func findProfile(profiles []map[string]any, network string) map[string]any {
	for _, p := range profiles {
		if strings.EqualFold(str(p, "network"), network) {
			return p
		}
	}
	return nil
}

// profileLink returns the best link-ish value from a social profile entry.
func profileLink(p map[string]any) string {
	if p == nil {
		return ""
	}
	if u := str(p, "url"); u != "" {
		return u
	}
	return str(p, "username")
}
