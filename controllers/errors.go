package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Fredric505/taller-api/services"
)

// respondServiceError maps a lifecycle/payroll service error to the HTTP
// response envelope. Every error kind carries a stable code the frontend
// displays verbatim.
func respondServiceError(c *gin.Context, err error) {
	var (
		invalidTransition *services.InvalidTransitionError
		validationErr     *services.ValidationError
		inactiveAssignee  *services.InactiveAssigneeError
		conflictErr       *services.ConflictError
		notFoundErr       *services.NotFoundError
		storageErr        *services.StorageError
	)

	switch {
	case errors.As(err, &invalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": invalidTransition.Error(),
			},
		})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": validationErr.Error(),
			},
		})
	case errors.As(err, &inactiveAssignee):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INACTIVE_ASSIGNEE",
				"message": inactiveAssignee.Error(),
			},
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CONFLICT",
				"message": conflictErr.Error(),
			},
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": notFoundErr.Error(),
			},
		})
	case errors.As(err, &storageErr):
		log.Errorf("storage error: %v", storageErr)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "A storage operation failed, please retry",
			},
		})
	default:
		log.Errorf("unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "An unexpected error occurred",
			},
		})
	}
}
