// Package identity abstracts the external identity provider that owns user
// profiles. The provisioning core only needs registration: the provider
// allocates the user id and returns the canonical profile.
package identity

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// RequiredAction is a follow-up the identity provider forces on first login.
type RequiredAction string

const ActionUpdatePassword RequiredAction = "UPDATE_PASSWORD"

// UserInput is the profile submitted when provisioning a user.
type UserInput struct {
	Username        string           `json:"username"`
	Firstname       string           `json:"firstname"`
	Lastname        string           `json:"lastname"`
	Password        string           `json:"password"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone,omitempty"`
	Salutation      string           `json:"salutation,omitempty"`
	RoomNumber      string           `json:"room_number,omitempty"`
	JobTitle        string           `json:"job_title,omitempty"`
	Enabled         *bool            `json:"enabled,omitempty"`
	RequiredActions []RequiredAction `json:"required_actions,omitempty"`
}

// UserDetails is the canonical profile as the identity provider stores it.
type UserDetails struct {
	UserID     snowflake.ID `gorm:"column:user_id" json:"user_id"`
	Firstname  string       `gorm:"column:firstname" json:"firstname"`
	Lastname   string       `gorm:"column:lastname" json:"lastname"`
	Username   string       `gorm:"column:username;uniqueIndex:ux_users_username" json:"username"`
	Email      string       `gorm:"column:email" json:"email"`
	Phone      string       `gorm:"column:phone" json:"phone,omitempty"`
	Salutation string       `gorm:"column:salutation" json:"salutation,omitempty"`
	JobTitle   string       `gorm:"column:job_title" json:"job_title,omitempty"`
	Enabled    bool         `gorm:"column:enabled" json:"enabled"`
}

// Provider registers profiles with the identity system.
type Provider interface {
	Register(ctx context.Context, input UserInput) (UserDetails, error)
}
