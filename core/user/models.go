package user

import (
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
)

type User struct {
	ID           string     `json:"id"`
	Role         authz.Role `json:"role"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	IsActive     bool       `json:"is_active"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
	LastLogin    time.Time  `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Principal returns the authenticated caller view of the user.
func (u User) Principal() *authz.Principal {
	return &authz.Principal{UserID: u.ID, Role: u.Role, Email: u.Email, FullName: u.FullName}
}

func (u User) MailAddress() mail.Address {
	return mail.Address{Name: u.FullName, Address: u.Email}
}

// Student is the profile of a User with the student role.
type Student struct {
	UserID             string `json:"id"`
	RegistrationNumber string `json:"registration_number"`
	Class              string `json:"class"`
	Section            string `json:"section"`
	ParentID           string `json:"parent_id,omitempty"` // "" when not linked

	// joined from User
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Teacher is the profile of a User with the teacher role.
type Teacher struct {
	UserID      string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	Department  string `json:"department"`
	Designation string `json:"designation"`

	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Parent is the profile of a User with the parent role.
type Parent struct {
	UserID      string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`

	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// NewUser contains information needed to register a new User and its role profile.
type NewUser struct {
	FullName        string     `json:"full_name" validate:"required,notblank"`
	Email           string     `json:"email" validate:"required,email"`
	Password        string     `json:"password" validate:"required"`
	PasswordConfirm string     `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            authz.Role `json:"role" validate:"required,role"`

	// student
	RegistrationNumber string `json:"registration_number"`
	Class              string `json:"class"`
	Section            string `json:"section"`

	// teacher
	EmployeeID  string `json:"employee_id"`
	Department  string `json:"department"`
	Designation string `json:"designation"`

	// parent
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

func (nu *NewUser) Clean() {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.RegistrationNumber = core.CleanString(nu.RegistrationNumber)
	nu.Class = core.CleanString(nu.Class)
	nu.Section = core.CleanString(nu.Section)
	nu.EmployeeID = core.CleanString(nu.EmployeeID)
	nu.Department = core.CleanString(nu.Department)
	nu.Designation = core.CleanString(nu.Designation)
	nu.PhoneNumber = core.CleanString(nu.PhoneNumber)
	nu.Address = core.CleanString(nu.Address)
}

func (nu *NewUser) Validate() error {
	nu.Clean()
	return core.Validate.Struct(nu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

// SetUserPassword is used by admins to overwrite a password without a reset token.
type SetUserPassword struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (sp *SetUserPassword) Validate() error {
	sp.Email = core.CleanString(sp.Email, true /* lower */)
	return core.Validate.Struct(sp)
}

// GetFilter selects a single User by ID or by Email.
type GetFilter struct {
	ID    string
	Email string
}

// StudentFilter applies AND on its set fields.
type StudentFilter struct {
	IDs      []string
	ParentID string
}
