package directory

import (
	"github.com/fundwit/go-commons/types"
)

type EntryKind string

const (
	EntryKindPersonnel = EntryKind("personnel")
	EntryKindVendor    = EntryKind("vendor")
)

// DirectoryEntry is one registered person or vendor. Entry names are stored
// canonicalized and are the reference strings for clearance fee rows.
type DirectoryEntry struct {
	ID   types.ID  `json:"id" gorm:"primary_key"`
	Kind EntryKind `json:"kind"`

	Name         string `json:"name"`
	Organization string `json:"organization"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`

	Active bool `json:"active"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CreatorID  types.ID        `json:"creatorId"`
}

type EntryCreation struct {
	Kind EntryKind `json:"kind" binding:"required,oneof=personnel vendor"`
	Name string    `json:"name" binding:"required,lte=128"`

	Organization string `json:"organization" binding:"lte=128"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone" binding:"lte=32"`
}

type EntryUpdating struct {
	Organization string `json:"organization" binding:"lte=128"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone" binding:"lte=32"`
	Active       *bool  `json:"active"`
}

type EntryQuery struct {
	Kind  EntryKind `form:"kind"`
	Query string    `form:"query"`
}
