package ble

import "strings"

// uuidSet matches UUID strings ignoring case. An empty set matches any UUID.
type uuidSet map[string]struct{}

func newUUIDSet(uuids []string) uuidSet {
	set := make(uuidSet, len(uuids))
	for _, u := range uuids {
		set[strings.ToLower(strings.TrimSpace(u))] = struct{}{}
	}
	return set
}

func (s uuidSet) has(u string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[strings.ToLower(u)]
	return ok
}
