package controller

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"photoshare/models"
	"photoshare/processing"
	"photoshare/services"
)

var validate = validator.New()

// imageFromForm returns the "image" part, or nil when the request has none.
func imageFromForm(c *gin.Context) (processing.Source, bool) {
	file, err := c.FormFile("image")
	if err == nil {
		return processing.FromFileHeader(file), true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
		return nil, false
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, true
	case errors.Is(err, multipart.ErrMessageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
		return nil, false
	default:
		log.Println(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return nil, false
	}
}

func ListPhotos(photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		viewer := c.GetString("user_id")

		list, err := photos.List(ctx)
		if err != nil {
			respondError(c, err)
			return
		}

		responsePhotos := make([]*models.PhotoResponse, 0, len(list))
		for i := range list {
			view, err := photos.View(ctx, &list[i], viewer)
			if err != nil {
				respondError(c, err)
				return
			}
			responsePhotos = append(responsePhotos, view)
		}

		c.JSON(http.StatusOK, gin.H{
			"photos": responsePhotos,
			"total":  len(responsePhotos),
		})
	}
}

func GetPhoto(photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		photo, err := photos.Get(ctx, c.Param("id"), c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}

		view, err := photos.View(ctx, photo, c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func CreatePhoto(photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		src, ok := imageFromForm(c)
		if !ok {
			return
		}
		if src == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
			return
		}

		update := models.PhotoUpdate{}
		if title, ok := c.GetPostForm("title"); ok {
			update.Title = &title
		}
		if err := validate.Struct(update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation Failed", "details": err.Error()})
			return
		}
		title := ""
		if update.Title != nil {
			title = *update.Title
		}

		photo, err := photos.Create(ctx, c.GetString("user_id"), title, src)
		if err != nil {
			respondError(c, err)
			return
		}

		view, err := photos.View(ctx, photo, c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, view)
	}
}

func UpdatePhoto(photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		src, ok := imageFromForm(c)
		if !ok {
			return
		}

		update := models.PhotoUpdate{}
		if title, ok := c.GetPostForm("title"); ok {
			update.Title = &title
		}
		if err := validate.Struct(update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation Failed", "details": err.Error()})
			return
		}
		if update.Title == nil && src == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
			return
		}

		photo, err := photos.Update(ctx, c.GetString("user_id"), c.Param("id"), update.Title, src)
		if err != nil {
			respondError(c, err)
			return
		}

		view, err := photos.View(ctx, photo, c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func DeletePhoto(photos *services.PhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := photos.Delete(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func ToggleLike(likes *services.LikeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		photoID := c.Param("id")

		liked, err := likes.Toggle(ctx, photoID, c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}

		count, err := likes.Count(ctx, photoID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": count})
	}
}
