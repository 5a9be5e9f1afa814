package ratelimit

import "strings"

// MatchEndpoint returns the configuration whose method and pattern match the
// request, or nil. Literal patterns win over ones with {name} segments.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	var wildcard *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if wildcard == nil && matchPattern(c.Path, path) {
			wildcard = c
		}
	}
	return wildcard
}

func matchPattern(pattern, path string) bool {
	if !strings.Contains(pattern, "{") {
		return false
	}
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i, seg := range want {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return true
}
