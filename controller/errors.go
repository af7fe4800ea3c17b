package controller

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"photoshare/database"
	"photoshare/processing"
	"photoshare/services"
)

// respondError maps service errors onto HTTP statuses. Anything unknown is a
// storage failure and is logged, not echoed.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, services.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, processing.ErrTooLarge):
		status, message = http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, processing.ErrUnsupported):
		status, message = http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, processing.ErrProcessing):
		status, message = http.StatusUnprocessableEntity, "Image could not be processed"
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, database.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrUserExists):
		status, message = http.StatusConflict, "User already exist"
	}

	if status >= http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
		log.Println(err)
	}
	c.JSON(status, gin.H{"error": message})
}
