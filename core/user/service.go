package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user")
	ErrStudentNotFound    = core.NewNotFoundError("student")
	ErrParentNotFound     = core.NewNotFoundError("parent")
	ErrTeacherNotFound    = core.NewNotFoundError("teacher")
	ErrEmailExists        = core.NewConflictError("a user with this email already exists")
	ErrProfileExists      = core.NewConflictError("a user with this registration or employee number already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = core.NewPermissionError("this account is disabled")
	ErrInvalidResetToken  = core.NewValidationError(errors.New("invalid or expired password reset link"))
)

const passwordResetTmpl = "password_reset"

type (
	Repository interface {
		EmailExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error)
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)

		CreateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) error
		CreateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) error
		CreateParent(ctx context.Context, par Parent, exec ...core.DBExecutor) error
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (Teacher, error)
		GetParent(ctx context.Context, id string, exec ...core.DBExecutor) (Parent, error)
		// QueryStudents returns students ordered by full name.
		QueryStudents(ctx context.Context, filter StudentFilter, exec ...core.DBExecutor) ([]Student, error)
		SetStudentParent(ctx context.Context, studentID, parentID string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo    Repository
		tx      core.Transactor
		mailSvc core.EmailService
		logger  core.Logger
		guard   authz.Guard
		tokens  tokenGenerator
	}
)

func NewService(repo Repository, tx core.Transactor, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		mailSvc: mailSvc,
		logger:  logger,
		tokens:  tokenGenerator{secretKey: []byte(conf.SecretKey), timeout: conf.PasswordResetTimeoutDelta},
	}
}

func (svc *Service) storeError(err error, action string) error {
	err = core.WrapStoreError(err, action)
	if core.IsStoreFailure(err) {
		svc.logger.Error("user: "+err.Error(), err)
	}
	return err
}

// Register creates a User and its role profile. Both rows are written in one transaction:
// if the profile cannot be created, the User is not persisted either.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Role:      nu.Role,
		Email:     nu.Email,
		FullName:  nu.FullName,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		exists, err := svc.repo.EmailExists(ctx, usr.Email, core.Execs(exec)...)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailExists
		}

		if usr, err = svc.repo.CreateUser(ctx, usr, core.Execs(exec)...); err != nil {
			return err
		}

		switch usr.Role {
		case authz.RoleStudent:
			err = svc.repo.CreateStudent(ctx, Student{
				UserID:             usr.ID,
				RegistrationNumber: nu.RegistrationNumber,
				Class:              nu.Class,
				Section:            nu.Section,
			}, core.Execs(exec)...)
		case authz.RoleTeacher:
			err = svc.repo.CreateTeacher(ctx, Teacher{
				UserID:      usr.ID,
				EmployeeID:  nu.EmployeeID,
				Department:  nu.Department,
				Designation: nu.Designation,
			}, core.Execs(exec)...)
		case authz.RoleParent:
			err = svc.repo.CreateParent(ctx, Parent{
				UserID:      usr.ID,
				PhoneNumber: nu.PhoneNumber,
				Address:     nu.Address,
			}, core.Execs(exec)...)
		}
		return err
	})
	if err != nil {
		return User{}, svc.storeError(err, "register user")
	}
	return usr, nil
}

// Authenticate checks a user's credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, svc.storeError(err, "log in")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDisabled
	}
	return svc.SetLastLogin(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	usr, err := svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, svc.storeError(err, "update user")
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, svc.storeError(err, "load user")
	}
	return usr, nil
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return User{}, svc.storeError(err, "load user")
	}
	return usr, nil
}

// GetStudent returns a student's profile to the student, their parent, or an admin.
func (svc *Service) GetStudent(ctx context.Context, p *authz.Principal, id string) (Student, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return Student{}, err
	}
	st, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, svc.storeError(err, "load student")
	}
	if err = svc.guard.Check(p, authz.Read, authz.StudentResource(st.UserID, st.ParentID)); err != nil {
		return Student{}, err
	}
	return st, nil
}

// Profile returns the role profile of the caller (Student, Teacher or Parent), nil for admins.
func (svc *Service) Profile(ctx context.Context, p *authz.Principal) (interface{}, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return nil, err
	}

	var (
		profile interface{}
		err     error
	)
	switch p.Role {
	case authz.RoleStudent:
		profile, err = svc.repo.GetStudent(ctx, p.UserID)
	case authz.RoleTeacher:
		profile, err = svc.repo.GetTeacher(ctx, p.UserID)
	case authz.RoleParent:
		profile, err = svc.repo.GetParent(ctx, p.UserID)
	}
	if err != nil {
		return nil, svc.storeError(err, "load profile")
	}
	return profile, nil
}

// Children lists the students linked to parentID. Parents may only list their own children.
func (svc *Service) Children(ctx context.Context, p *authz.Principal, parentID string) ([]Student, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return nil, err
	}
	if parentID == "" {
		parentID = p.UserID
	}
	if !(p.IsAdmin() || (p.IsParent() && p.UserID == parentID)) {
		return nil, core.NewPermissionError("you can only list your own children")
	}

	children, err := svc.repo.QueryStudents(ctx, StudentFilter{ParentID: parentID})
	if err != nil {
		return nil, svc.storeError(err, "load children")
	}
	return children, nil
}

// LinkParent sets parentID as the parent of studentID. Admins only.
func (svc *Service) LinkParent(ctx context.Context, p *authz.Principal, studentID, parentID string) error {
	if err := svc.guard.Check(p, authz.Write, authz.RoleResource(authz.RoleAdmin)); err != nil {
		return err
	}

	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetStudent(ctx, studentID, core.Execs(exec)...); err != nil {
			return err
		}
		if _, err := svc.repo.GetParent(ctx, parentID, core.Execs(exec)...); err != nil {
			return err
		}
		return svc.repo.SetStudentParent(ctx, studentID, parentID, core.Execs(exec)...)
	})
	return svc.storeError(err, "link parent")
}

// SetPassword overwrites a user's password. Used by the admin CLI.
func (svc *Service) SetPassword(ctx context.Context, sp SetUserPassword) error {
	if err := sp.Validate(); err != nil {
		return err
	}
	usr, err := svc.GetByEmail(ctx, sp.Email)
	if err != nil {
		return err
	}
	return svc.changePassword(ctx, usr, sp.Password)
}

// RequestPasswordReset emails a password reset link to the user (if any) owning email.
// Unknown emails are silently ignored.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return svc.storeError(err, "request password reset")
	}
	if !usr.IsActive {
		return nil
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{usr.MailAddress()},
		Subject:      "Password Reset",
		TemplateName: passwordResetTmpl,
		TemplateData: map[string]interface{}{
			"Name":  usr.FullName,
			"UID":   encodeUID(usr),
			"Token": svc.tokens.makeToken(usr),
		},
	})
	return nil
}

// ResetPassword sets a new password using a token sent by RequestPasswordReset.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	if err := rp.Validate(); err != nil {
		return err
	}
	id, err := decodeUID(rp.UID)
	if err != nil {
		return ErrInvalidResetToken
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		if core.IsNotFound(err) {
			return ErrInvalidResetToken
		}
		return svc.storeError(err, "reset password")
	}
	if err = svc.tokens.verifyToken(usr, rp.Token); err != nil {
		return ErrInvalidResetToken
	}
	return svc.changePassword(ctx, usr, rp.Password)
}

func (svc *Service) changePassword(ctx context.Context, usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return svc.storeError(err, "update password")
	}
	return nil
}
