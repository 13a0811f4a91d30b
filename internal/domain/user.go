package domain

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// Password length limits. bcrypt ignores input beyond 72 bytes.
const (
	MinPasswordLength = 12
	MaxPasswordLength = 72
)

// ErrEmptyPassword is returned when a user has neither a plaintext nor a hashed password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// User represents a registered user. Generations, error logs and flashcards
// are all scoped to a user ID.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // plaintext, only set during registration
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given email and password.
// The caller is responsible for hashing the password before storing the user.
func NewUser(email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// A plaintext password is length-checked when present; otherwise a hash must exist.
func (u *User) Validate() error {
	if u.Password == "" && u.HashedPassword == "" {
		return validationError(ErrEmptyPassword)
	}
	return validationError(validation.ValidateStruct(u,
		validation.Field(&u.ID, validation.By(notNilUUID)),
		validation.Field(&u.Email, validation.Required, is.EmailFormat),
		validation.Field(&u.Password, validation.Length(MinPasswordLength, MaxPasswordLength)),
	))
}
