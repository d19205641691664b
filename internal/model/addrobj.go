package model

import (
	"github.com/google/uuid"
)

// Level is the aolevel of an address object: its place in the FIAS hierarchy.
type Level int

const (
	LevelRegion   Level = 1
	LevelAutonomy Level = 2
	LevelArea     Level = 3
	LevelCity     Level = 4
	LevelCityArea Level = 5
	LevelPlace    Level = 6
	LevelStreet   Level = 7
	LevelExtra    Level = 90
	LevelSubExtra Level = 91
)

var levelComponents = map[Level]string{
	LevelRegion:   "region",
	LevelAutonomy: "autonomy",
	LevelArea:     "area",
	LevelCity:     "city",
	LevelCityArea: "city_area",
	LevelPlace:    "place",
	LevelStreet:   "street",
	LevelExtra:    "extra",
	LevelSubExtra: "sub_extra",
}

// Component returns the address component name for the level
// (e.g. "region", "street"), or "" for levels outside the classifier.
func (l Level) Component() string {
	return levelComponents[l]
}

// AddrObj is a node of the FIAS address object hierarchy.
type AddrObj struct {
	GUID       uuid.UUID  `json:"aoguid" yaml:"aoguid"`
	ParentGUID *uuid.UUID `json:"parentguid,omitempty" yaml:"parentguid,omitempty"`
	Level      Level      `json:"aolevel" yaml:"aolevel"`
	FormalName string     `json:"formalname" yaml:"formalname"`
	ShortName  string     `json:"shortname,omitempty" yaml:"shortname,omitempty"`
	PostalCode string     `json:"postalcode,omitempty" yaml:"postalcode,omitempty"`
	Code       string     `json:"code,omitempty" yaml:"code,omitempty"`
}

// String returns the human-readable form, e.g. "ул Ленина".
func (a *AddrObj) String() string {
	if a.ShortName == "" {
		return a.FormalName
	}
	return a.ShortName + " " + a.FormalName
}

// IsRoot reports whether the object sits at the region level.
func (a *AddrObj) IsRoot() bool {
	return a.Level <= LevelRegion
}
