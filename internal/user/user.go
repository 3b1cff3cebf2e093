package user

import "fmt"

type User struct {
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	BirthDate   Date   `json:"birthDate" validate:"required,past"`
	Address     string `json:"address,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty" validate:"omitempty,phone"`
}

// String is used in log lines.
func (u User) String() string {
	return fmt.Sprintf("User{email=%q, firstName=%q, lastName=%q, birthDate=%s, address=%q, phoneNumber=%q}",
		u.Email, u.FirstName, u.LastName, u.BirthDate, u.Address, u.PhoneNumber)
}
