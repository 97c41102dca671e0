package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
	"github.com/saadqamar22/LMS-2.0-sub000/tests"
)

func newStudent(name, email, regNo string) user.NewUser {
	return user.NewUser{
		FullName:           name,
		Email:              email,
		Password:           testutil.Password,
		PasswordConfirm:    testutil.Password,
		Role:               authz.RoleStudent,
		RegistrationNumber: regNo,
		Class:              "10",
		Section:            "B",
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.UserService()

	usr, err := svc.Register(ctx, newStudent("Alice Doe", " Alice@School.test ", "R-001"))
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "alice@school.test", usr.Email)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword(testutil.Password))

	st, err := env.Users.GetStudent(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "R-001", st.RegistrationNumber)
	assert.Equal(t, "Alice Doe", st.FullName)

	tests := []struct {
		name    string
		nu      user.NewUser
		checkFn func(error) bool
	}{
		{"email taken", newStudent("Alice Again", "alice@school.test", "R-002"), core.IsConflict},
		{"registration number taken", newStudent("Bob Roe", "bob@school.test", "R-001"), core.IsConflict},
		{"missing registration number", newStudent("Carl Poe", "carl@school.test", ""), core.IsValidation},
		{"invalid role", func() user.NewUser {
			nu := newStudent("Dora Loe", "dora@school.test", "R-004")
			nu.Role = "janitor"
			return nu
		}(), core.IsValidation},
		{"weak password", func() user.NewUser {
			nu := newStudent("Eve Moe", "eve@school.test", "R-005")
			nu.Password, nu.PasswordConfirm = "password", "password"
			return nu
		}(), core.IsValidation},
		{"password mismatch", func() user.NewUser {
			nu := newStudent("Finn Noe", "finn@school.test", "R-006")
			nu.PasswordConfirm = "Other-Pa$$w0rd"
			return nu
		}(), core.IsValidation},
		{"teacher without employee id", func() user.NewUser {
			nu := newStudent("Gus Hoe", "gus@school.test", "")
			nu.Role = authz.RoleTeacher
			return nu
		}(), core.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.nu)
			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
		})
	}

	t.Run("profile failure rolls back the user", func(t *testing.T) {
		exists, err := env.Users.EmailExists(ctx, "bob@school.test")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.UserService()

	usr := env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")
	inactive := env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	inactive.IsActive = false
	_, err := env.Users.UpdateUser(ctx, inactive)
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "ALICE@school.test", testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	assert.False(t, got.LastLogin.IsZero())

	_, err = svc.Authenticate(ctx, "alice@school.test", "wrong")
	assert.Equal(t, user.ErrInvalidCredentials, err)

	_, err = svc.Authenticate(ctx, "nobody@school.test", testutil.Password)
	assert.Equal(t, user.ErrInvalidCredentials, err)

	_, err = svc.Authenticate(ctx, "tom@school.test", testutil.Password)
	assert.True(t, core.IsPermissionDenied(err))
}

func TestService_Profiles(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.UserService()

	alice := env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")
	bob := env.CreateStudent(t, "Bob Roe", "bob@school.test", "R-002")
	parent := env.CreateParent(t, "Pam Doe", "pam@school.test", alice)
	admin := env.CreateAdmin(t, "Ada Min", "admin@school.test")

	profile, err := svc.Profile(ctx, alice.Principal())
	require.NoError(t, err)
	assert.Equal(t, "R-001", profile.(user.Student).RegistrationNumber)

	_, err = svc.Profile(ctx, nil)
	assert.True(t, core.IsUnauthenticated(err))

	// student visibility
	_, err = svc.GetStudent(ctx, parent.Principal(), alice.ID)
	assert.NoError(t, err)
	_, err = svc.GetStudent(ctx, parent.Principal(), bob.ID)
	assert.True(t, core.IsPermissionDenied(err))
	_, err = svc.GetStudent(ctx, bob.Principal(), alice.ID)
	assert.True(t, core.IsPermissionDenied(err))
	_, err = svc.GetStudent(ctx, admin.Principal(), "missing")
	assert.True(t, core.IsNotFound(err))

	// children
	children, err := svc.Children(ctx, parent.Principal(), "")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, alice.ID, children[0].UserID)

	_, err = svc.Children(ctx, alice.Principal(), parent.ID)
	assert.True(t, core.IsPermissionDenied(err))

	// linking is admin only
	assert.True(t, core.IsPermissionDenied(svc.LinkParent(ctx, parent.Principal(), bob.ID, parent.ID)))
	require.NoError(t, svc.LinkParent(ctx, admin.Principal(), bob.ID, parent.ID))
	assert.True(t, core.IsNotFound(svc.LinkParent(ctx, admin.Principal(), bob.ID, alice.ID)))

	children, err = svc.Children(ctx, admin.Principal(), parent.ID)
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.UserService()

	usr := env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")

	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@school.test"))
	assert.Empty(t, env.Mail.SentMessages())

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@school.test"))
	sent := env.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)

	data := sent[0].TemplateData.(map[string]interface{})
	newPwd := "N3w-Pa$$phrase"
	rp := user.ResetUserPassword{
		UID:             data["UID"].(string),
		Token:           data["Token"].(string),
		Password:        newPwd,
		PasswordConfirm: newPwd,
	}

	bad := rp
	bad.Token = "bad-token"
	assert.Equal(t, user.ErrInvalidResetToken, svc.ResetPassword(ctx, bad))

	require.NoError(t, svc.ResetPassword(ctx, rp))
	_, err := svc.Authenticate(ctx, usr.Email, newPwd)
	require.NoError(t, err)

	// the login invalidates the token
	assert.Equal(t, user.ErrInvalidResetToken, svc.ResetPassword(ctx, rp))

	err = svc.SetPassword(ctx, user.SetUserPassword{Email: usr.Email, Password: "Adm1n-Set!", PasswordConfirm: "Adm1n-Set!"})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, usr.Email, "Adm1n-Set!")
	assert.NoError(t, err)
}
