package models

import (
	"time"
)

type User struct {
	ID        string    `json:"user_id" bson:"_id" gorm:"primaryKey;type:text"`
	FirstName string    `json:"first_name" bson:"first_name" validate:"required,max=64"`
	LastName  string    `json:"last_name" bson:"last_name" validate:"required,max=64"`
	Email     string    `json:"email" bson:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	Password  string    `json:"-" bson:"password" gorm:"not null"`
	Role      string    `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type UserRegistration struct {
	FirstName string `json:"first_name" form:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,max=64"`
	Email     string `json:"email" form:"email" validate:"required,email"`
	Password  string `json:"password" form:"password" validate:"required,min=6,max=64"`
}

type UserLogin struct {
	Email    string `json:"email" form:"email" validate:"email,required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type PasswordUpdate struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" form:"new_password" validate:"required,min=6,max=64,nefield=CurrentPassword"`
}

type UserResponse struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (u *User) Response() UserResponse {
	return UserResponse{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}
