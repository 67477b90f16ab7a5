package model

import "time"

// User mirrors the 'users' table. Email is the authentication key and is
// unique at the database level; the username is a secondary lookup key used
// by profile operations. QuitDate is nil until the user starts a cessation
// attempt.
type User struct {
	ID                uint64     `json:"id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	PasswordHash      string     `json:"-"`
	ProfileImage      *string    `json:"profile_image,omitempty"`
	QuitDate          *time.Time `json:"quit_date,omitempty"`
	CigarettesPerDay  int        `json:"cigarettes_per_day"`
	PricePerPack      float64    `json:"price_per_pack"`
	CigarettesPerPack int        `json:"cigarettes_per_pack"`
	Age               *int       `json:"age,omitempty"`
	SmokingYears      int        `json:"smoking_years"`
	Preexisting       *string    `json:"preexisting_conditions,omitempty"`
	BodyWeight        *float64   `json:"body_weight,omitempty"`
	SportActivity     *string    `json:"sport_activity,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ProfileUpdate carries the full field set written by a profile update.
// The update is applied as one UPDATE statement, so concurrent writers are
// last-write-wins over this whole set. Nil pointers clear the column.
type ProfileUpdate struct {
	ProfileImage      *string
	QuitDate          *time.Time
	CigarettesPerDay  int
	PricePerPack      float64
	CigarettesPerPack int
	Age               *int
	SmokingYears      int
	Preexisting       *string
	BodyWeight        *float64
	SportActivity     *string
}
