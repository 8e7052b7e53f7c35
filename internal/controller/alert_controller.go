package controller

import (
	"campuswell_backend/internal/service"
	"campuswell_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AlertController struct {
	Alerts   *service.AlertService
	Feedback *service.FeedbackService
}

func NewAlertController(alerts *service.AlertService, feedback *service.FeedbackService) *AlertController {
	return &AlertController{Alerts: alerts, Feedback: feedback}
}

// Queue godoc
// @Summary Pending alert queue
// @Description Pending alerts ordered IMMEDIATE, URGENT, ROUTINE, newest first within each tier
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "max alerts"
// @Success 200 {object} util.Response
// @Router /alerts/queue [get]
func (c *AlertController) Queue(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	alerts, err := c.Alerts.Queue(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, alerts)
}

// Get godoc
// @Summary Alert detail
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path int true "alert id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /alerts/{id} [get]
func (c *AlertController) Get(ctx *gin.Context) {
	alert, err := c.Alerts.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrAlertNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, alert)
}

type ReviewAlertRequest struct {
	Notes string `json:"notes"`
}

// Review godoc
// @Summary Mark an alert reviewed
// @Description Forward-only transition; a reviewed alert never returns to pending
// @Tags alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "alert id"
// @Param body body ReviewAlertRequest true "review notes"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /alerts/{id}/review [post]
func (c *AlertController) Review(ctx *gin.Context) {
	var req ReviewAlertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	alert, err := c.Alerts.Review(util.MustParseUint(ctx.Param("id")), claims.UserID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAlertNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlertAlreadyReviewed):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, alert)
}

// Context godoc
// @Summary Full context for one alert
// @Description Alert plus triggering risk profile and analysis, student baseline, recent patterns and assessments
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path int true "alert id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /alerts/{id}/context [get]
func (c *AlertController) Context(ctx *gin.Context) {
	context, err := c.Alerts.FullContext(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrAlertNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, context)
}

// RecordOutcome godoc
// @Summary Record counselor follow-through on an alert
// @Description Stores the scheduled appointment and whether the student engaged with the intervention
// @Tags alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "alert id"
// @Param body body service.RecordOutcomeRequest true "appointment and engagement"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /alerts/{id}/outcome [post]
func (c *AlertController) RecordOutcome(ctx *gin.Context) {
	var req service.RecordOutcomeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	context, err := c.Alerts.RecordOutcome(util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		if errors.Is(err, util.ErrAlertNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, context)
}

// ListForStudent godoc
// @Summary List a student's alerts
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /students/{id}/alerts [get]
func (c *AlertController) ListForStudent(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	alerts, total, err := c.Alerts.ListByStudent(studentID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: alerts, Total: total, Page: page, Limit: limit})
}

// SubmitFeedback godoc
// @Summary Submit counselor feedback on an alert
// @Tags alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "alert id"
// @Param body body service.SubmitFeedbackRequest true "verdict"
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /alerts/{id}/feedback [post]
func (c *AlertController) SubmitFeedback(ctx *gin.Context) {
	var req service.SubmitFeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	feedback, err := c.Feedback.Submit(util.MustParseUint(ctx.Param("id")), claims.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrAlertNotFound) {
			util.NotFound(ctx)
			return
		}
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, feedback)
}
