package model

import "gorm.io/gorm"

// User struct
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"password"`
	PhotoUrl string `json:"photoUrl"`
	Role     string `json:"role"`

	Otp_enabled bool `gorm:"default:false;"`
	Otp_secret  string
}
