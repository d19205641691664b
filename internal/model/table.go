package model

import "strings"

const deltaPrefix = "delta_"

// Table describes a FIAS table selected for import.
type Table struct {
	// Name is the bare table name, e.g. "addrobj".
	Name string `json:"name"`
	// FullName keys handler resolution; delta tables carry the "delta_" prefix.
	FullName string `json:"full_name"`
	IsDelta  bool   `json:"is_delta"`
}

// NewTable builds a descriptor for a full archive table.
func NewTable(name string) Table {
	name = strings.ToLower(strings.TrimSpace(name))
	return Table{Name: name, FullName: name}
}

// NewDeltaTable builds a descriptor for a delta archive table.
func NewDeltaTable(name string) Table {
	name = strings.ToLower(strings.TrimSpace(name))
	return Table{Name: name, FullName: deltaPrefix + name, IsDelta: true}
}

// ParseTable builds a descriptor from a full name, detecting the delta prefix.
func ParseTable(fullName string) Table {
	fullName = strings.ToLower(strings.TrimSpace(fullName))
	if strings.HasPrefix(fullName, deltaPrefix) {
		return NewDeltaTable(strings.TrimPrefix(fullName, deltaPrefix))
	}
	return NewTable(fullName)
}
