package models

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// usernames double as file names in the file store
var usernameRegex = regexp.MustCompile(`^[\w.-]+$`)

type User struct {
	Username  string `db:"username" json:"username" validate:"required,max=64"`
	Password  string `db:"password" json:"password" validate:"required"`
	CreatedAt int64  `db:"created_at" json:"created_at,omitempty"`
}

func (u *User) Validate() error {
	validate := validator.New()
	if err := validate.Struct(u); err != nil {
		return err
	}
	return ValidateUsername(u.Username)
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ValidationError{
			Field:   "Username",
			Value:   username,
			Message: "only letters, digits, '.', '_' and '-' are allowed",
		}
	}
	return nil
}
