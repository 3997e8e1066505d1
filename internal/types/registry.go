package types

import (
	"strings"
	"time"

	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	RoleDev   Role = "DEV"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleDev:
		return true
	}
	return false
}

// Staff reports whether the role may manage records and other accounts.
func (r Role) Staff() bool { return r == RoleAdmin || r == RoleDev }

// User is an account. Username is the natural key; email and phone are
// unique among active rows only.
type User struct {
	store.Entity
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	PhoneNumber  string
	Role         Role
}

// Deceased is a burial record keyed by the 14-digit personal identifier.
type Deceased struct {
	store.Entity
	PersonalID string
	FullName   string
	BirthDate  time.Time
	DeathDate  time.Time
	Biography  string
}

type FileCategory string

const (
	FileCategoryImage   FileCategory = "IMAGE"
	FileCategoryPDF     FileCategory = "PDF"
	FileCategoryWord    FileCategory = "WORD"
	FileCategoryUnknown FileCategory = "UNKNOWN"
)

// FileAsset is the metadata row of an uploaded file. HashID is the only
// identifier exposed publicly.
type FileAsset struct {
	store.Entity
	Size        int64
	Path        string
	Category    FileCategory
	ContentType string
	Name        string
	HashID      string
}

type LinkCategory string

const (
	LinkCategoryPhoto       LinkCategory = "PHOTO"
	LinkCategoryPassport    LinkCategory = "PASSPORT"
	LinkCategoryCertificate LinkCategory = "CERTIFICATE"
	LinkCategoryOther       LinkCategory = "OTHER"
)

func (c LinkCategory) Valid() bool {
	switch c {
	case LinkCategoryPhoto, LinkCategoryPassport, LinkCategoryCertificate, LinkCategoryOther:
		return true
	}
	return false
}

// ParseLinkCategory is case-insensitive; an empty value means PHOTO.
func ParseLinkCategory(s string) (LinkCategory, bool) {
	if strings.TrimSpace(s) == "" {
		return LinkCategoryPhoto, true
	}
	c := LinkCategory(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

// DeceasedFile links a deceased record to one of its files.
type DeceasedFile struct {
	store.Entity
	DeceasedID int64
	FileID     int64
	Category   LinkCategory
}

// DeceasedFileView is a link joined with its file's public token.
type DeceasedFileView struct {
	DeceasedFile
	HashID      string
	Name        string
	ContentType string
}
