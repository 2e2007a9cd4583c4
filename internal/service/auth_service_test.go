package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vgl-spec/soil-sub000/internal/apierror"
	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/model"
)

func TestRegister_HashesAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.auth.Register(ctx, dto.RegisterRequest{
		Username: "maria", Email: "maria@farm.test", Password: "harvest1", Contact: "555", Subdivision: "North",
	})
	require.NoError(t, err)

	u, err := f.users.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.NotEqual(t, "harvest1", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("harvest1")))

	_, err = f.auth.Register(ctx, dto.RegisterRequest{Username: "maria", Email: "other@farm.test", Password: "harvest1"})
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	_, err = f.auth.Register(ctx, dto.RegisterRequest{Username: "maria2", Email: "MARIA@farm.test", Password: "harvest1"})
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))

	logs, err := f.audit.List(ctx, &id)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionRegister, logs[0].ActionType)
}

func TestLogin_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "joe", "correct-horse", model.RoleOperator)

	_, err := f.auth.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "x"})
	e, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindUnauthorized, e.Kind)
	assert.Equal(t, "User not found", e.Message)

	_, err = f.auth.Login(ctx, dto.LoginRequest{Username: "joe", Password: "wrong"})
	e, ok = apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid password", e.Message)

	resp, err := f.auth.Login(ctx, dto.LoginRequest{Username: "joe", Password: "correct-horse"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, model.RoleOperator, resp.Role)
}

func TestLogin_LegacyPlaintextIsRehashed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := &model.User{Username: "legacy", Email: "legacy@farm.test", Password: "plain-pw", Role: model.RoleUser}
	require.NoError(t, f.users.Create(ctx, u))

	resp, err := f.auth.Login(ctx, dto.LoginRequest{Username: "legacy", Password: "plain-pw"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.ID)

	stored, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, isHash(stored.Password))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("plain-pw")))

	_, err = f.auth.Login(ctx, dto.LoginRequest{Username: "legacy", Password: "plain-pw"})
	require.NoError(t, err)

	again, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Password, again.Password, "second login must not rehash")
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "kim", "old-secret", model.RoleUser)

	err := f.auth.ChangePassword(ctx, dto.ChangePasswordRequest{UserID: u.ID, CurrentPassword: "old-secret", NewPassword: "short"})
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))

	err = f.auth.ChangePassword(ctx, dto.ChangePasswordRequest{UserID: u.ID, CurrentPassword: "nope", NewPassword: "new-secret"})
	assert.True(t, apierror.IsKind(err, apierror.KindUnauthorized))

	err = f.auth.ChangePassword(ctx, dto.ChangePasswordRequest{UserID: 999, CurrentPassword: "x", NewPassword: "new-secret"})
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))

	require.NoError(t, f.auth.ChangePassword(ctx, dto.ChangePasswordRequest{UserID: u.ID, CurrentPassword: "old-secret", NewPassword: "new-secret"}))

	_, err = f.auth.Login(ctx, dto.LoginRequest{Username: "kim", Password: "old-secret"})
	assert.True(t, apierror.IsKind(err, apierror.KindUnauthorized))
	_, err = f.auth.Login(ctx, dto.LoginRequest{Username: "kim", Password: "new-secret"})
	assert.NoError(t, err)
}

func TestChangePassword_FromLegacyPlaintext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := &model.User{Username: "old", Email: "old@farm.test", Password: "letmein", Role: model.RoleUser}
	require.NoError(t, f.users.Create(ctx, u))

	require.NoError(t, f.auth.ChangePassword(ctx, dto.ChangePasswordRequest{UserID: u.ID, CurrentPassword: "letmein", NewPassword: "better-one"}))

	stored, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("better-one")))
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sup := f.seedUser(t, "boss", "secret1", model.RoleSupervisor)
	op := f.seedUser(t, "worker", "secret1", model.RoleOperator)

	f.audit.Record(ctx, &op.ID, model.ActionLogin, "worker logged in")
	f.audit.Record(ctx, &sup.ID, model.ActionLogin, "boss logged in")

	err := f.auth.DeleteUser(ctx, sup.ID)
	assert.True(t, apierror.IsKind(err, apierror.KindForbidden))

	err = f.auth.DeleteUser(ctx, 12345)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))

	require.NoError(t, f.auth.DeleteUser(ctx, op.ID))

	_, err = f.users.FindByID(ctx, op.ID)
	assert.Error(t, err)
	left, err := f.audit.List(ctx, &op.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	all, err := f.audit.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.ActionDeleteUser, all[0].ActionType)
	assert.Nil(t, all[0].UserID)
}

func TestLogoutAndListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "zed", "secret1", model.RoleUser)
	f.seedUser(t, "amy", "secret1", model.RoleOperator)

	require.NoError(t, f.auth.Logout(ctx, u.ID))
	assert.True(t, apierror.IsKind(f.auth.Logout(ctx, 404), apierror.KindNotFound))

	logs, err := f.audit.List(ctx, &u.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionLogout, logs[0].ActionType)

	users, err := f.auth.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "amy", users[0].Username)
	assert.Equal(t, "zed", users[1].Username)
}

func TestPasswords_VerifyAndMaybeRehash(t *testing.T) {
	pw := newPasswords(bcrypt.MinCost)

	h, err := pw.hash("abc123")
	require.NoError(t, err)

	ok, rehash, err := pw.verifyAndMaybeRehash(h, "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)

	ok, _, err = pw.verifyAndMaybeRehash(h, "abc124")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, rehash, err = pw.verifyAndMaybeRehash("abc123", "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, isHash(rehash))

	ok, rehash, err = pw.verifyAndMaybeRehash("abc123", "ABC123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestPasswords_AcceptsPHPPrefix(t *testing.T) {
	pw := newPasswords(bcrypt.MinCost)
	h, err := pw.hash("php-era")
	require.NoError(t, err)

	// PHP's password_hash emits $2y$; the algorithm is identical.
	php := "$2y$" + h[4:]
	ok, rehash, err := pw.verifyAndMaybeRehash(php, "php-era")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)
}

func TestNewPasswords_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, newPasswords(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, newPasswords(99).cost)
	assert.Equal(t, 12, newPasswords(12).cost)
}

func TestPasswords_OverlongIsValidation(t *testing.T) {
	pw := newPasswords(bcrypt.MinCost)

	_, err := pw.hash(strings.Repeat("a", 73))
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))

	h, err := pw.hash(strings.Repeat("a", 72))
	require.NoError(t, err)
	assert.True(t, isHash(h))
}

func TestRegisterAndChangePassword_RejectOverlongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := strings.Repeat("a", 80)

	_, err := f.auth.Register(ctx, dto.RegisterRequest{Username: "long", Email: "long@farm.test", Password: long})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
	assert.Zero(t, f.count(t, &model.User{}))

	u := f.seedUser(t, "ana", "secret1", model.RoleOperator)
	err = f.auth.ChangePassword(ctx, dto.ChangePasswordRequest{UserID: u.ID, CurrentPassword: "secret1", NewPassword: long})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))

	_, err = f.auth.Login(ctx, dto.LoginRequest{Username: "ana", Password: "secret1"})
	assert.NoError(t, err)
}

func TestLogin_OverlongLegacyPlaintextStillLogsIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := strings.Repeat("p", 80)
	u := &model.User{Username: "old", Email: "old@farm.test", Password: long, Role: model.RoleUser}
	require.NoError(t, f.users.Create(ctx, u))

	resp, err := f.auth.Login(ctx, dto.LoginRequest{Username: "old", Password: long})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.ID)

	// Cannot be stored as bcrypt, so the row keeps its legacy value.
	stored, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, long, stored.Password)
}
