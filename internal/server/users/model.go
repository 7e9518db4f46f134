package users

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// User is an operator known to the dev auth server.
type User struct {
	Identifier  string
	DisplayName string
	Role        string
	Salt        []byte
	Verifier    []byte
}

// fileUser is the on-disk shape; salt and verifier are hex encoded.
type fileUser struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Salt        string `json:"salt"`
	Verifier    string `json:"verifier"`
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileUser{
		Identifier:  u.Identifier,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Salt:        hex.EncodeToString(u.Salt),
		Verifier:    hex.EncodeToString(u.Verifier),
	})
}

func (u *User) UnmarshalJSON(b []byte) error {
	var f fileUser
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}

	salt, err := hex.DecodeString(f.Salt)
	if err != nil {
		return fmt.Errorf("user %q: bad salt: %w", f.Identifier, err)
	}
	verifier, err := hex.DecodeString(f.Verifier)
	if err != nil {
		return fmt.Errorf("user %q: bad verifier: %w", f.Identifier, err)
	}

	*u = User{
		Identifier:  f.Identifier,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		Salt:        salt,
		Verifier:    verifier,
	}
	return nil
}

func (u User) validate() error {
	switch {
	case u.Identifier == "":
		return errors.New("user without identifier")
	case u.DisplayName == "" || u.Role == "":
		return fmt.Errorf("user %q: display_name and role are required", u.Identifier)
	case len(u.Salt) == 0 || len(u.Verifier) == 0:
		return fmt.Errorf("user %q: salt and verifier are required", u.Identifier)
	}
	return nil
}
