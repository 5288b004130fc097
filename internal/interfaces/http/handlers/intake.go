package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/domain/intake"
	"github.com/your-org/studio-storefront/internal/interfaces/http/middleware"
)

// IntakeHandler stores the project-intake questionnaire of a visitor
type IntakeHandler struct {
	intakeService *intake.Service
	logger        logrus.FieldLogger
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(intakeService *intake.Service, logger logrus.FieldLogger) *IntakeHandler {
	return &IntakeHandler{
		intakeService: intakeService,
		logger:        logger,
	}
}

// GetIntake handles GET /intake
func (h *IntakeHandler) GetIntake(c *gin.Context) {
	answers, err := h.intakeService.Get(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Intake retrieved successfully",
		"data":    answers,
	})
}

// SaveIntake handles PUT /intake
func (h *IntakeHandler) SaveIntake(c *gin.Context) {
	var answers intake.Answers
	if err := c.ShouldBindJSON(&answers); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Intake must be a JSON object",
			"details": err.Error(),
		})
		return
	}

	if err := h.intakeService.Save(c.Request.Context(), middleware.GetSessionID(c), answers); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Intake saved successfully",
		"data":    answers,
	})
}
