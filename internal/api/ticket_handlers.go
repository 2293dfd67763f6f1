package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

func ticketIDParam(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewValidationError("ticket id must be a positive integer",
			map[string]any{"id": raw})
	}
	return id, nil
}

func (s *Server) handleGetTicket(c *gin.Context) {
	id, err := ticketIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	ticket, err := s.deps.Tickets.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket.View())
}

func (s *Server) handleCreateTicket(c *gin.Context) {
	var req models.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	ticket, err := s.deps.Tickets.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket.View())
}

func (s *Server) handleUpdateTicket(c *gin.Context) {
	id, err := ticketIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var updates models.UpdateTicketRequest
	if err := c.ShouldBindJSON(&updates); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	ticket, err := s.deps.Tickets.Update(c.Request.Context(), id, updates)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket.View())
}

func (s *Server) handleDeleteTicket(c *gin.Context) {
	id, err := ticketIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.deps.Tickets.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListMessages(c *gin.Context) {
	id, err := ticketIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	messages, err := s.deps.Tickets.Messages(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageViews(messages))
}

func (s *Server) handleAddMessage(c *gin.Context) {
	id, err := ticketIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req models.AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	// Messages posted without an explicit sender are attributed to the
	// authenticated caller.
	if req.SenderUserName == nil {
		if name := middleware.CurrentUserName(c); name != "" {
			req.SenderUserName = &name
		} else if email := middleware.CurrentUser(c); email != "" {
			req.SenderUserName = &email
		}
	}
	message, err := s.deps.Tickets.AddMessage(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message.View())
}

func (s *Server) handleListAttachments(c *gin.Context) {
	id, err := ticketIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	attachments, err := s.deps.Tickets.Attachments(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AttachmentViews(attachments))
}
