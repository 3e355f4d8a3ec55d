// Package models содержит доменные сущности techblog.
package models

import "time"

// Role - роль учётной записи.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid сообщает, относится ли роль к известным значениям.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account - учётная запись.
// Важно:
//   - ID - ObjectID MongoDB в hex-представлении.
//   - PasswordHash заполняется только при поиске для входа и никогда не сериализуется наружу.
//   - Username и Email уникальны; Email хранится в нижнем регистре.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public возвращает копию без секретного поля.
func (a Account) Public() Account {
	a.PasswordHash = ""
	return a
}

// Identity - полезная нагрузка токена.
type Identity struct {
	SubjectID string
	Username  string
	Role      Role
}

// LoginResult - итог успешного входа.
type LoginResult struct {
	Account   Account
	Token     string
	ExpiresAt time.Time
}
