package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "USER"
	RoleAgent = "AGENT"
	RoleAdmin = "ADMIN"
)

// User statuses
const (
	UserStatusActive  = "ACTIVE"
	UserStatusBlocked = "BLOCKED"
)

type User struct {
	gorm.Model
	Name          string  `gorm:"not null"`
	Email         string  `gorm:"uniqueIndex;not null"`
	Phone         string  `gorm:"uniqueIndex;not null"`
	Password      string  `gorm:"not null" json:"-"`
	Role          string  `gorm:"default:'USER'"`
	Status        string  `gorm:"default:'ACTIVE'"`
	AgentApproved bool    `gorm:"default:false"`
	WalletID      *uint   `gorm:"unique;default:null"`
	Wallet        *Wallet `gorm:"foreignKey:WalletID"`
	TokenVersion  int     `gorm:"default:1"`
	LastLoginAt   time.Time
}

// IsAgent reports whether the user is an admin-approved agent.
func (u *User) IsAgent() bool {
	return u.Role == RoleAgent && u.AgentApproved
}
