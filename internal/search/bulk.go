package search

import (
	"context"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// BulkUpdate applies one update map to every listed ticket. The map is
// resolved once; a bad field fails the whole request before any writes. After
// that, each ticket succeeds or fails on its own and the response reports the
// per-ticket outcomes.
func (o *Orchestrator) BulkUpdate(ctx context.Context, req *models.BulkUpdateRequest) (*models.BulkUpdateResponse, error) {
	if req == nil || len(req.TicketIDs) == 0 {
		return nil, apperrors.NewValidationError("ticket_ids must not be empty", nil)
	}
	assigns, err := o.resolver.ResolveUpdates(req.Updates)
	if err != nil {
		return nil, err
	}

	resp := &models.BulkUpdateResponse{
		Results: make([]models.BulkUpdateResult, 0, len(req.TicketIDs)),
	}
	for _, id := range req.TicketIDs {
		// Update appends server-managed stamps to the slice it receives, so
		// each ticket gets its own copy.
		_, err := o.store.Update(ctx, id, append([]fieldmap.Assignment{}, assigns...))
		result := models.BulkUpdateResult{TicketID: id, OK: err == nil}
		if err != nil {
			result.Error = err.Error()
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, result)
	}
	return resp, nil
}
