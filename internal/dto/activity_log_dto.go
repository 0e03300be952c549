package dto

import (
	"time"

	"github.com/aralhq/aral-go-api/internal/models"
)

// AuditEntryResponse serializes one audit trail event.
type AuditEntryResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AuditListRequest filters the audit trail listing.
type AuditListRequest struct {
	Page       int    `query:"page"`
	PageSize   int    `query:"page_size"`
	ActorID    uint   `query:"actor_id"`
	Action     string `query:"action"`
	EntityType string `query:"entity_type"`
}

// AuditListResponse is a page of audit entries.
type AuditListResponse struct {
	Entries    []AuditEntryResponse `json:"entries"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewAuditEntryResponse converts an ActivityLog model into a DTO.
func NewAuditEntryResponse(model models.ActivityLog) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         model.ID,
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Metadata:   model.Metadata,
		CreatedAt:  model.CreatedAt,
	}
}
