package handlers

import (
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"github.com/gin-gonic/gin"
)

// respondError maps model-layer error kinds to HTTP statuses. Anything not in
// the taxonomy is a 500 and gets logged with its correlation id.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorUnscoped):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorDuplicateBookingName),
		errors.Is(err, utils.ErrorDuplicateName),
		errors.Is(err, utils.ErrorPaymentsExceedPackageCost),
		errors.Is(err, utils.ErrorCostBelowCommittedPayments):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		var transitionErr *utils.InvalidTransitionError
		var crewErr *utils.InvalidCrewReferencesError
		if errors.As(err, &transitionErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": transitionErr.Error(),
				"from":  transitionErr.From,
				"to":    transitionErr.To,
			})
			return
		}
		if errors.As(err, &crewErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   crewErr.Error(),
				"crewIds": crewErr.Ids,
			})
			return
		}
		if errors.Is(err, utils.ErrorTransactionAborted) {
			logUnexpected(c, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		// validation errors out of the model layer read as client mistakes
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	}
}

func logUnexpected(c *gin.Context, err error) {
	logger := config.GetLogger()
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	config.LogError(logger, "handlers", c.FullPath(), "correlation_id="+cid, nil, err)
}

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
}
