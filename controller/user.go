package controller

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"photoshare/middlewares"
	"photoshare/models"
	"photoshare/services"
)

func RegisterUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UserRegistration
		if err := c.ShouldBind(&req); err != nil {
			log.Println(err)
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "Invalid Request Body"})
			return
		}

		user, err := users.Register(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.IndentedJSON(http.StatusCreated, user.Response())
	}
}

func Login(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UserLogin
		if err := c.ShouldBind(&req); err != nil {
			log.Println(err)
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "Invalid Request Body"})
			return
		}

		user, token, err := users.Login(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     middlewares.TokenCookie,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(users.TokenTTL()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		c.IndentedJSON(http.StatusOK, gin.H{
			"status": "Login Successfull",
			"token":  token,
			"user":   user.Response(),
		})
	}
}

func Logout(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-1 * time.Second),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	c.IndentedJSON(http.StatusOK, gin.H{"status": "Logout Successfull"})
}

func UpdatePassword(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PasswordUpdate
		if err := c.ShouldBind(&req); err != nil {
			log.Println(err)
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "Invalid Payload"})
			return
		}

		if err := users.UpdatePassword(c.Request.Context(), c.GetString("user_id"), req); err != nil {
			respondError(c, err)
			return
		}
		c.IndentedJSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
	}
}

func Me(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.Get(c.Request.Context(), c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user.Response())
	}
}
