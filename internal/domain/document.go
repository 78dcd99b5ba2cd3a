package domain

import "time"

// Document is a file in the document library. It may be attached to a
// client, an installed module or a catalog module type.
type Document struct {
	ID           string
	Name         string
	FileURL      string
	StoragePath  string
	ContentType  string
	SizeBytes    int64
	ClientID     *string
	ModuleID     *string
	ModuleTypeID *string
	CreatedAt    time.Time
}
