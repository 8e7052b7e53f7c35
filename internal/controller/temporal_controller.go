package controller

import (
	"campuswell_backend/internal/service"
	"campuswell_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type TemporalController struct {
	Temporal *service.TemporalService
}

func NewTemporalController(temporal *service.TemporalService) *TemporalController {
	return &TemporalController{Temporal: temporal}
}

// Analyze godoc
// @Summary Run temporal pattern detection for a student
// @Description Scans the recent risk history; fewer than two points yields an insufficient-data status
// @Tags temporal
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Success 200 {object} util.Response
// @Router /students/{id}/patterns/analyze [post]
func (c *TemporalController) Analyze(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))

	patterns, err := c.Temporal.Analyze(studentID)
	if err != nil {
		if errors.Is(err, util.ErrInsufficientData) {
			util.Success(ctx, gin.H{"status": "insufficient_data", "patterns": []any{}})
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"status": "ok", "patterns": patterns})
}

// Trajectory godoc
// @Summary Risk trajectory for a student
// @Description Time series of risk profiles with an overall trend verdict
// @Tags temporal
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Success 200 {object} util.Response
// @Router /students/{id}/trajectory [get]
func (c *TemporalController) Trajectory(ctx *gin.Context) {
	trajectory, err := c.Temporal.Trajectory(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, trajectory)
}

// ListForStudent godoc
// @Summary Recently detected patterns for a student
// @Tags temporal
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Success 200 {object} util.Response
// @Router /students/{id}/patterns [get]
func (c *TemporalController) ListForStudent(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))

	patterns, err := c.Temporal.TemporalRepo.RecentByStudent(studentID, 20)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, patterns)
}
