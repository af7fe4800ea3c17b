package route

import (
	"photoshare/controller"
	mw "photoshare/middlewares"

	"github.com/gin-gonic/gin"
)

func Protected(router *gin.Engine, d Deps) {
	protected := router.Group("/")
	protected.Use(mw.JWT(d.Secret))

	protected.GET("/me", controller.Me(d.Users))
	protected.PATCH("/me/password", controller.UpdatePassword(d.Users))

	uploads := protected.Group("/photos")
	uploads.Use(mw.BodyLimit(d.MaxBodyBytes))
	uploads.POST("", controller.CreatePhoto(d.Photos))
	uploads.PATCH("/:id", controller.UpdatePhoto(d.Photos))

	protected.DELETE("/photos/:id", controller.DeletePhoto(d.Photos))
	protected.PATCH("/photos/:id/like", controller.ToggleLike(d.Likes))
}
