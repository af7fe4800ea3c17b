package route

import (
	"photoshare/controller"
	mw "photoshare/middlewares"

	"github.com/gin-gonic/gin"
)

func Unprotected(router *gin.Engine, d Deps) {
	router.GET("/", controller.Home)
	router.GET("/health", controller.Health(d.DB))

	router.POST("/registration", controller.RegisterUser(d.Users))
	router.POST("/login", controller.Login(d.Users))
	router.POST("/logout", controller.Logout)

	public := router.Group("/photos")
	public.Use(mw.OptionalJWT(d.Secret))
	public.GET("", controller.ListPhotos(d.Photos))
	public.GET("/:id", controller.GetPhoto(d.Photos))
}
