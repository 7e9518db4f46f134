// Package models defines the client-side data models of a session.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidProfile = errors.New("invalid user profile")

// User is the authenticated principal as returned by the backend and cached
// at auth.profile.
type User struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// Validate reports ErrInvalidProfile unless every field is set.
func (u User) Validate() error {
	switch {
	case u.Identifier == "":
		return fmt.Errorf("%w: missing identifier", ErrInvalidProfile)
	case u.DisplayName == "":
		return fmt.Errorf("%w: missing displayName", ErrInvalidProfile)
	case u.Role == "":
		return fmt.Errorf("%w: missing role", ErrInvalidProfile)
	}
	return nil
}

// ParseUser decodes and validates a cached profile.
func ParseUser(data []byte) (User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	return u, nil
}

// LoginResult is what a successful backend login yields.
type LoginResult struct {
	Token   string
	Profile User
}
