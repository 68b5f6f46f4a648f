package domain

import "time"

type User struct {
	Model
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Phone     string    `json:"phone" db:"phone"`
	Address   string    `json:"address" db:"address"`
}
