package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumitra/entitlements/internal/api/dto"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/service"
	"github.com/edumitra/entitlements/internal/types"
)

type TutorHandler struct {
	tutorService service.TutorService
	logger       *logger.Logger
}

func NewTutorHandler(tutorService service.TutorService, logger *logger.Logger) *TutorHandler {
	return &TutorHandler{
		tutorService: tutorService,
		logger:       logger,
	}
}

// @Summary Ask the AI tutor
// @Description Answers a question, gated and metered as the ai_question
// feature
// @Tags Tutor
// @Accept json
// @Produce json
// @Param request body dto.AskTutorRequest true "Question"
// @Success 200 {object} dto.AskTutorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /tutor/ask [post]
// @Security BearerAuth
func (h *TutorHandler) Ask(c *gin.Context) {
	accountID := types.GetAccountID(c.Request.Context())
	if accountID == "" {
		c.Error(ierr.NewError("missing account context").
			WithHint("Unauthorized").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	var req dto.AskTutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	answer, err := h.tutorService.Ask(c.Request.Context(), accountID, req.Text, req.History, req.ImageURL)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.AskTutorResponse{Answer: answer})
}
