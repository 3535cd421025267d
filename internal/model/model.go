package model

import (
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&AnnotationGroup{},
	&MarkRecord{},
	&LineRecord{},
}

// AnnotationGroup is one persisted layer of user annotations.
type AnnotationGroup struct {
	gorm.Model
	GroupID int64  `json:"groupId" gorm:"uniqueIndex"`
	Name    string `json:"name" gorm:"size:127"`
	Visible bool   `json:"visible"`

	Marks []MarkRecord `json:"marks" gorm:"foreignKey:AnnotationGroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Lines []LineRecord `json:"lines" gorm:"foreignKey:AnnotationGroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (*AnnotationGroup) TableName() string {
	return "annotation_groups"
}

// MarkRecord is one persisted point annotation. Ordinal is the mark's position
// in the group's collection; the spatial index refers to marks by it.
type MarkRecord struct {
	gorm.Model
	AnnotationGroupID uint       `json:"groupId" gorm:"index:idx_markrecord_group_id"`
	Ordinal           int        `json:"ordinal"`
	Pivot             geom.Point `json:"pivot"` // EPSG:3857, stored as WKB
	Symbol            string     `json:"symbol" gorm:"size:63"`
	Anchor            uint8      `json:"anchor"`
	OffsetX           float64    `json:"offsetX"`
	OffsetY           float64    `json:"offsetY"`
	Depth             float32    `json:"depth"`
	Priority          uint16     `json:"priority"`
}

func (*MarkRecord) TableName() string {
	return "mark_records"
}

// LineRecord is one persisted polyline annotation. Points holds the coordinate
// sequence as a JSON array of [x,y] pairs; SQLite has no spatial type, so the
// JSON payload is the portable representation across backends.
type LineRecord struct {
	gorm.Model
	AnnotationGroupID uint           `json:"groupId" gorm:"index:idx_linerecord_group_id"`
	Ordinal           int            `json:"ordinal"`
	Points            datatypes.JSON `json:"points"`
	Color             uint32         `json:"color"`
	Width             float32        `json:"width"`
	Depth             float32        `json:"depth"`
}

func (*LineRecord) TableName() string {
	return "line_records"
}
