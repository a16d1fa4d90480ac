package model

// OTP is a one-time code sent to an email address. Email is deliberately not
// unique, several rows for the same address can exist at once.
type OTP struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Email     string    `gorm:"index;not null"`
	Code      string    `gorm:"not null"`
	CreatedAt Timestamp `gorm:"not null"`
	ExpiresAt Timestamp `gorm:"index;not null"`
}

// TableName keeps the table name stable regardless of the naming strategy
func (OTP) TableName() string {
	return "otps"
}
