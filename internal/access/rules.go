package access

import (
	"encoding/json"
	"sort"
	"strings"
)

// DynamicPlaceholder stands in for a concrete resource id in a page path,
// e.g. "/assets/[id]".
const DynamicPlaceholder = "[id]"

type RuleKind string

const (
	RuleExact          RuleKind = "EXACT"
	RuleSectionRoot    RuleKind = "SECTION_ROOT"
	RuleDynamicSegment RuleKind = "DYNAMIC_SEGMENT"
	RuleGlobalRoot     RuleKind = "GLOBAL_ROOT"
)

type Rule struct {
	Kind  RuleKind `json:"kind"`
	Path  string   `json:"path"`
	Allow bool     `json:"allow"`
}

// Rules is the typed form of a user's page access map. The zero value grants
// nothing.
type Rules struct {
	byPath map[string]Rule
}

// Classify reports which kind of rule a page access key represents.
func Classify(path string) RuleKind {
	if path == "/" {
		return RuleGlobalRoot
	}
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segments) > 1 && segments[len(segments)-1] == DynamicPlaceholder {
		return RuleDynamicSegment
	}
	if len(segments) == 1 {
		return RuleSectionRoot
	}
	return RuleExact
}

// ParseRules builds Rules from the raw JSON map stored on the user row.
// Keys that are not absolute paths and values that are not booleans are
// dropped, which leaves them denied.
func ParseRules(raw map[string]interface{}) Rules {
	rules := Rules{byPath: make(map[string]Rule, len(raw))}
	for key, value := range raw {
		allow, ok := value.(bool)
		if !ok {
			continue
		}
		rules.set(key, allow)
	}
	return rules
}

// NewRules builds Rules from an already typed map.
func NewRules(entries map[string]bool) Rules {
	rules := Rules{byPath: make(map[string]Rule, len(entries))}
	for key, allow := range entries {
		rules.set(key, allow)
	}
	return rules
}

func (r *Rules) set(key string, allow bool) {
	path := normalizePath(key)
	if path == "" {
		return
	}
	r.byPath[path] = Rule{Kind: Classify(path), Path: path, Allow: allow}
}

func (r Rules) allows(path string) bool {
	rule, ok := r.byPath[path]
	return ok && rule.Allow
}

func (r Rules) Len() int {
	return len(r.byPath)
}

// Entries returns the rules ordered by path.
func (r Rules) Entries() []Rule {
	result := make([]Rule, 0, len(r.byPath))
	for _, rule := range r.byPath {
		result = append(result, rule)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result
}

// Map returns the rules in their stored JSON shape.
func (r Rules) Map() map[string]bool {
	result := make(map[string]bool, len(r.byPath))
	for path, rule := range r.byPath {
		result[path] = rule.Allow
	}
	return result
}

func (r Rules) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func (r *Rules) UnmarshalJSON(data []byte) error {
	var entries map[string]bool
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*r = NewRules(entries)
	return nil
}

func normalizePath(raw string) string {
	path := strings.TrimSpace(raw)
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	if !strings.HasPrefix(path, "/") {
		return ""
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
