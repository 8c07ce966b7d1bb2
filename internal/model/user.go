package model

import "time"

// User is the single admin credential. Username is unique across the store
// and PasswordHash is a bcrypt digest; neither the hash nor the plaintext is
// ever serialized back to a client.
type User struct {
	ID           string    `bson:"_id" json:"-"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"password" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
