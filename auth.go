package main

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"invscan/models"
	"invscan/pkg/store"
)

// RegisterUser creates a user with the regular role and a default character named
// after the account.
func RegisterUser(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username required")
	}
	if len(password) < 6 { // basic password policy
		return fmt.Errorf("password too short (min 6)")
	}
	// pre-check existing (optimistic)
	if _, err := st.UserByName(username); err == nil {
		return fmt.Errorf("user already exists")
	}
	user, err := st.CreateUser(username, password, store.RoleUser)
	if err != nil {
		if store.IsUniqueConstraintError(err) { // race condition after initial check
			return fmt.Errorf("user already exists")
		}
		return err
	}
	if _, err := st.EnsureCharacter(user.ID, username, ""); err != nil {
		return fmt.Errorf("create default character: %v", err)
	}
	return nil
}

// Authenticate checks the password and returns the user with its role loaded.
func Authenticate(username, password string) (models.User, error) {
	user, err := st.UserByName(strings.TrimSpace(username))
	if err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	return *user, nil
}
