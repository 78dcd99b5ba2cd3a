package domain

import "time"

// ModuleType is a catalog entry describing a product model.
type ModuleType struct {
	ID           string
	Name         string
	Manufacturer string
	Model        string
	Description  string
	CreatedAt    time.Time
}

// Module is a physical unit installed at a client site.
type Module struct {
	ID             string
	ClientID       string
	ModuleTypeID   string
	ModuleTypeName string
	SerialNumber   string
	InstallDate    *Date
	Location       string
	CreatedAt      time.Time
}
