package core

import (
	"fmt"
	"strings"
)

// ReferenceType classifies why a module is being requested.
// The pipeline forwards it to the loader without interpreting it.
type ReferenceType int

const (
	ReferenceUndefined ReferenceType = iota
	ReferenceEntry
	ReferenceStatic
	ReferenceDynamic
	ReferenceInternal
)

var referenceNames = map[ReferenceType]string{
	ReferenceUndefined: "undefined",
	ReferenceEntry:     "entry",
	ReferenceStatic:    "static",
	ReferenceDynamic:   "dynamic",
	ReferenceInternal:  "internal",
}

// String returns the lowercase name of the reference type.
func (r ReferenceType) String() string {
	if name, ok := referenceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reference(%d)", int(r))
}

// ParseReferenceType parses a reference type name (case-insensitive).
func ParseReferenceType(s string) (ReferenceType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range referenceNames {
		if name == s {
			return r, nil
		}
	}
	return ReferenceUndefined, fmt.Errorf("unknown reference type %q (valid: entry, static, dynamic, internal, undefined)", s)
}
