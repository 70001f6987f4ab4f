package models

import "time"

// User is the phone-number-identified storefront account. PasswordHash stays
// nil for OTP-only accounts until the user sets a password.
type User struct {
	ID                uint      `gorm:"column:id;primaryKey;autoIncrement"`
	PhoneNumber       string    `gorm:"column:phone_number;type:text;not null;uniqueIndex"`
	Name              string    `gorm:"column:name;type:text;not null;default:''"`
	Address           *string   `gorm:"column:address;type:text"`
	PasswordHash      *string   `gorm:"column:password_hash;type:text"`
	IsProfileComplete bool      `gorm:"column:is_profile_complete;not null;default:false"`
	IsActive          bool      `gorm:"column:is_active;not null;default:true"`
	IsStaff           bool      `gorm:"column:is_staff;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// HasUsablePassword reports whether password login is possible for the account.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
