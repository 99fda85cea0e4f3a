package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/attachment"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/server/appstate"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/server/router"
	enginerouter "github.com/Shubham-murar/supervisor-multi-agent/engine/router"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/session"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/travel/export"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/version"
)

// AskRequest is the body of POST /api/v0/ask.
type AskRequest struct {
	Query         string `json:"query"`
	SessionID     string `json:"session_id,omitempty"`
	ForceDocument bool   `json:"force_document,omitempty"`
}

// AskResponse is the envelope plus the session it was answered in.
type AskResponse struct {
	core.AnswerEnvelope
	SessionID string `json:"session_id"`
}

// DocumentResponse describes the active document after an upload.
type DocumentResponse struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Size      int    `json:"size"`
	MIME      string `json:"mime"`
}

func stateOrAbort(c *gin.Context) *appstate.State {
	state, err := appstate.GetState(c.Request.Context())
	if err != nil {
		reqErr := router.NewRequestError(http.StatusInternalServerError, router.ErrMsgAppStateNotInitialized, err)
		router.RespondWithError(c, reqErr)
		return nil
	}
	return state
}

// Ask answers one question.
//
//	@Summary	Route a question to the matching agent
//	@Accept		json
//	@Produce	json
//	@Param		request	body		AskRequest	true	"Question"
//	@Success	200		{object}	AskResponse
//	@Failure	400		{object}	core.Problem
//	@Failure	404		{object}	core.Problem
//	@Router		/api/v0/ask [post]
func Ask(c *gin.Context) {
	state := stateOrAbort(c)
	if state == nil {
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, router.NewRequestError(http.StatusBadRequest, "invalid request body", err))
		return
	}
	if req.SessionID == "" {
		req.SessionID = state.Sessions.Create().ID
	}
	doc, pending, err := state.Sessions.Take(req.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		router.RespondWithError(c, router.NewRequestError(http.StatusNotFound, "session not found", err))
		return
	}
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	if timeout := state.App.Config.Server.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	env := state.App.Ask(ctx, enginerouter.Query{
		Text:            req.Query,
		ForceDocumentQA: req.ForceDocument || pending,
		Document:        doc,
	})
	router.RespondOK(c, "Success", AskResponse{AnswerEnvelope: env, SessionID: req.SessionID})
}

// UploadDocument sets the active document of a session.
//
//	@Summary	Upload the active document of a session
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id		path		string	true	"Session ID"
//	@Param		file	formData	file	true	"Document"
//	@Success	200		{object}	DocumentResponse
//	@Failure	400		{object}	core.Problem
//	@Failure	413		{object}	core.Problem
//	@Router		/api/v0/sessions/{id}/document [post]
func UploadDocument(c *gin.Context) {
	state := stateOrAbort(c)
	if state == nil {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		router.RespondWithError(c, uploadError(err))
		return
	}
	f, err := header.Open()
	if err != nil {
		router.RespondWithError(c, router.NewRequestError(http.StatusBadRequest, "cannot open upload", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		router.RespondWithError(c, uploadError(err))
		return
	}
	doc := &attachment.Document{Name: filepath.Base(header.Filename), Data: data}
	sess, err := state.Sessions.Attach(c.Param("id"), doc)
	if errors.Is(err, session.ErrInvalidID) {
		router.RespondWithError(c, router.NewRequestError(http.StatusBadRequest, "invalid session id", err))
		return
	}
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	logger.FromContext(c.Request.Context()).Info("Active document set",
		"session_id", sess.ID,
		"name", doc.Name,
		"size", len(data),
	)
	router.RespondOK(c, "Document uploaded", DocumentResponse{
		SessionID: sess.ID,
		Name:      doc.Name,
		Size:      len(data),
		MIME:      doc.MIME(),
	})
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return router.NewRequestError(http.StatusRequestEntityTooLarge, "document too large", err)
	}
	return router.NewRequestError(http.StatusBadRequest, "multipart field 'file' is required", err)
}

// DownloadPlan streams an exported travel plan.
//
//	@Summary	Download an exported travel plan
//	@Produce	application/pdf
//	@Param		name	path	string	true	"Plan file name"
//	@Success	200
//	@Failure	404	{object}	core.Problem
//	@Failure	503	{object}	core.Problem
//	@Router		/api/v0/plans/{name} [get]
func DownloadPlan(c *gin.Context) {
	state := stateOrAbort(c)
	if state == nil {
		return
	}
	if state.App.Exporter == nil {
		router.RespondWithError(c, router.NewRequestError(http.StatusServiceUnavailable, router.ErrMsgExportDisabled, nil))
		return
	}
	name := c.Param("name")
	f, err := state.App.Exporter.Open(name)
	switch {
	case errors.Is(err, export.ErrInvalidName):
		router.RespondWithError(c, router.NewRequestError(http.StatusBadRequest, "invalid plan name", err))
		return
	case errors.Is(err, os.ErrNotExist):
		router.RespondWithError(c, router.NewRequestError(http.StatusNotFound, "plan not found", err))
		return
	case err != nil:
		router.RespondWithError(c, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", f, map[string]string{
		"Content-Disposition": `attachment; filename="` + name + `"`,
	})
}

// Health reports liveness.
func Health(c *gin.Context) {
	state := stateOrAbort(c)
	if state == nil {
		return
	}
	router.RespondOK(c, "Success", gin.H{
		"status":     "ok",
		"provider":   state.App.Config.LLM.Provider,
		"sessions":   state.Sessions.Len(),
		"monitoring": state.App.Monitoring != nil && state.App.Monitoring.IsInitialized(),
		"export":     state.App.Exporter != nil,
		"version":    version.Get(),
	})
}
