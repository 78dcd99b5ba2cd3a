package dto

import (
	"time"

	"github.com/fieldops/fieldservice/internal/domain"
)

// ClientRequest payload for create and update.
type ClientRequest struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

type ClientResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ModuleTypeRequest payload for create and update.
type ModuleTypeRequest struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Description  string `json:"description"`
}

type ModuleTypeResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
	Model        string    `json:"model"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// ModuleRequest payload; client_id is ignored on update.
type ModuleRequest struct {
	ClientID     string       `json:"client_id"`
	ModuleTypeID string       `json:"module_type_id"`
	SerialNumber string       `json:"serial_number"`
	InstallDate  *domain.Date `json:"install_date"`
	Location     string       `json:"location"`
}

type ModuleResponse struct {
	ID             string       `json:"id"`
	ClientID       string       `json:"client_id"`
	ModuleTypeID   string       `json:"module_type_id"`
	ModuleTypeName string       `json:"module_type_name"`
	SerialNumber   string       `json:"serial_number"`
	InstallDate    *domain.Date `json:"install_date"`
	Location       string       `json:"location"`
	CreatedAt      time.Time    `json:"created_at"`
}

func NewClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:          c.ID,
		Name:        c.Name,
		ContactName: c.ContactName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func NewModuleTypeResponse(mt *domain.ModuleType) ModuleTypeResponse {
	return ModuleTypeResponse{
		ID:           mt.ID,
		Name:         mt.Name,
		Manufacturer: mt.Manufacturer,
		Model:        mt.Model,
		Description:  mt.Description,
		CreatedAt:    mt.CreatedAt,
	}
}

func NewModuleResponse(m *domain.Module) ModuleResponse {
	return ModuleResponse{
		ID:             m.ID,
		ClientID:       m.ClientID,
		ModuleTypeID:   m.ModuleTypeID,
		ModuleTypeName: m.ModuleTypeName,
		SerialNumber:   m.SerialNumber,
		InstallDate:    m.InstallDate,
		Location:       m.Location,
		CreatedAt:      m.CreatedAt,
	}
}
