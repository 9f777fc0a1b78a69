package domain

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	GenderFemale = "FEMALE"
	GenderMale   = "MALE"
	GenderOther  = "OTHER"
)

type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Username     string     `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:50;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:128;not null" json:"-"`
	Enabled      bool       `gorm:"not null;default:false" json:"enabled"`
	Roles        []UserRole `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Profile      Profile    `gorm:"constraint:OnDelete:CASCADE" json:"profile"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type UserRole struct {
	UserID string `gorm:"primaryKey;size:36" json:"-"`
	Role   string `gorm:"primaryKey;size:32" json:"role"`
}

// Authorities returns the role names granted to the user. The session
// service snapshots this set into token claims at issuance.
func (u *User) Authorities() []string {
	authorities := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		authorities = append(authorities, r.Role)
	}
	return authorities
}

type Profile struct {
	UserID       string     `gorm:"primaryKey;size:36" json:"-"`
	FirstName    string     `gorm:"size:50;not null" json:"first_name"`
	LastName     string     `gorm:"size:50;not null" json:"last_name"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Gender       string     `gorm:"size:16" json:"gender"`
	City         string     `gorm:"size:50" json:"city,omitempty"`
	Country      string     `gorm:"size:50" json:"country,omitempty"`
	Description  string     `gorm:"size:1024" json:"description,omitempty"`
	ImageKey     string     `gorm:"size:128" json:"-"`
	ImageContent string     `gorm:"size:128" json:"-"`
}

// Follow records that FollowerID follows FolloweeID.
type Follow struct {
	FollowerID string    `gorm:"primaryKey;size:36;index" json:"follower_id"`
	FolloweeID string    `gorm:"primaryKey;size:36;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}
