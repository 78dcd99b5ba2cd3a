package dto

import (
	"time"

	"github.com/fieldops/fieldservice/internal/domain"
)

type DocumentResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	FileURL      string    `json:"file_url"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	ClientID     *string   `json:"client_id"`
	ModuleID     *string   `json:"module_id"`
	ModuleTypeID *string   `json:"module_type_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewDocumentResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID,
		Name:         d.Name,
		FileURL:      d.FileURL,
		ContentType:  d.ContentType,
		SizeBytes:    d.SizeBytes,
		ClientID:     d.ClientID,
		ModuleID:     d.ModuleID,
		ModuleTypeID: d.ModuleTypeID,
		CreatedAt:    d.CreatedAt,
	}
}
