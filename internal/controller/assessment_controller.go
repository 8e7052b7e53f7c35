package controller

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/service"
	"campuswell_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	Assessments *service.AssessmentService
	Students    *service.StudentService
}

func NewAssessmentController(assessments *service.AssessmentService, students *service.StudentService) *AssessmentController {
	return &AssessmentController{Assessments: assessments, Students: students}
}

// Submit godoc
// @Summary Submit a clinical screening
// @Description Scores the raw responses with the instrument's scoring table
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.SubmitAssessmentRequest true "screening responses"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /assessments [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	var req service.SubmitAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	student, err := c.Students.GetByUserID(claims.UserID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	assessment, err := c.Assessments.Submit(student.ID, req)
	if err != nil {
		if errors.Is(err, util.ErrInvalidAssessmentType) || errors.Is(err, util.ErrInvalidAnswerCount) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	resp := gin.H{"assessment": assessment}
	if target := service.EscalationTarget(assessment); target != "" {
		resp["escalateTo"] = target
	}
	if assessment.AssessmentType == model.AssessmentCSSRS {
		resp["clinicalAction"] = service.ClinicalAction(assessment.Score)
	}
	util.Created(ctx, resp)
}

// CSSRSTriggerCheck godoc
// @Summary Check whether the safety screening should be offered
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Success 200 {object} util.Response
// @Router /students/{id}/cssrs-check [post]
func (c *AssessmentController) CSSRSTriggerCheck(ctx *gin.Context) {
	result, err := c.Assessments.CSSRSTriggerCheck(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Trajectory godoc
// @Summary Score trajectory for one instrument
// @Description Least-squares fit over every sitting; rising scores read as worsening
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Param type query string true "instrument"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /students/{id}/assessments/trajectory [get]
func (c *AssessmentController) Trajectory(ctx *gin.Context) {
	trajectory, err := c.Assessments.Trajectory(
		util.MustParseUint(ctx.Param("id")),
		ctx.DefaultQuery("type", model.AssessmentPHQ9))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidAssessmentType):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrAssessmentNotFound), errors.Is(err, util.ErrInsufficientData):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, trajectory)
}

// ListForStudent godoc
// @Summary List a student's screenings
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /students/{id}/assessments [get]
func (c *AssessmentController) ListForStudent(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	assessments, total, err := c.Assessments.ListByStudent(studentID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: assessments, Total: total, Page: page, Limit: limit})
}
