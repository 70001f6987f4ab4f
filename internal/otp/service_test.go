package otp

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/freshoils/freshoils-backend/pkg/config"
	"github.com/freshoils/freshoils-backend/pkg/db/models"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
	"github.com/freshoils/freshoils-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubStore struct {
	codes map[string]string
	ttls  map[string]time.Duration
}

func newStubStore() *stubStore {
	return &stubStore{codes: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.codes[key] = fmt.Sprint(value)
	s.ttls[key] = ttl
	return nil
}

func (s *stubStore) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	current, ok := s.codes[key]
	if !ok || current != expected {
		return false, nil
	}
	delete(s.codes, key)
	return true, nil
}

func (s *stubStore) OTPKey(phone string) string { return "fo:otp:" + phone }

type stubSMS struct {
	sent []string
	err  error
}

func (s *stubSMS) Send(ctx context.Context, to, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to+"|"+body)
	return nil
}

type stubUsers struct {
	byPhone map[string]*models.User
	nextID  uint
	created int
}

func newStubUsers(users ...*models.User) *stubUsers {
	s := &stubUsers{byPhone: map[string]*models.User{}, nextID: 10}
	for _, u := range users {
		s.byPhone[u.PhoneNumber] = u
	}
	return s
}

func (s *stubUsers) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	if u, ok := s.byPhone[phone]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := s.byPhone[user.PhoneNumber]; ok {
		return nil, gorm.ErrDuplicatedKey
	}
	s.nextID++
	user.ID = s.nextID
	s.byPhone[user.PhoneNumber] = user
	s.created++
	return user, nil
}

type stubIssuer struct{}

func (stubIssuer) Issue(ctx context.Context, user *models.User) (string, string, error) {
	return "access-" + strconv.FormatUint(uint64(user.ID), 10), "refresh-token", nil
}

type fixture struct {
	svc   Service
	store *stubStore
	sms   *stubSMS
	users *stubUsers
	logs  *bytes.Buffer
}

func newFixture(t *testing.T, sms *stubSMS, users *stubUsers) *fixture {
	t.Helper()
	if users == nil {
		users = newStubUsers()
	}
	store := newStubStore()
	logs := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "otp-test", Output: logs})

	params := ServiceParams{
		Store:              store,
		UserRepo:           users,
		TokenIssuer:        stubIssuer{},
		Logger:             logg,
		OTPConfig:          config.OTPConfig{TTL: 300 * time.Second},
		DefaultCountryCode: "+91",
	}
	if sms != nil {
		params.SMS = sms
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, sms: sms, users: users, logs: logs}
}

func (f *fixture) storedCode(t *testing.T, phone string) string {
	t.Helper()
	code, ok := f.store.codes["fo:otp:"+phone]
	require.True(t, ok, "expected a stored code for %s", phone)
	return code
}

func TestSendStoresFourDigitCodeWithTTL(t *testing.T) {
	f := newFixture(t, &stubSMS{}, nil)

	resp, err := f.svc.Send(context.Background(), SendRequest{PhoneNumber: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, "OTP sent", resp.Message)

	code := f.storedCode(t, "+919876543210")
	require.Len(t, code, 4)
	value, err := strconv.Atoi(code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, value, 1000)
	assert.LessOrEqual(t, value, 9999)
	assert.Equal(t, 300*time.Second, f.store.ttls["fo:otp:+919876543210"])

	require.Len(t, f.sms.sent, 1)
	assert.Contains(t, f.sms.sent[0], code)
}

func TestSendReplacesPriorCode(t *testing.T) {
	f := newFixture(t, &stubSMS{}, nil)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, SendRequest{PhoneNumber: "+919876543210"})
	require.NoError(t, err)
	first := f.storedCode(t, "+919876543210")

	// Codes can repeat by chance; what matters is that the store only ever
	// holds the latest one.
	_, err = f.svc.Send(ctx, SendRequest{PhoneNumber: "+919876543210"})
	require.NoError(t, err)
	second := f.storedCode(t, "+919876543210")

	_, err = f.svc.Verify(ctx, VerifyRequest{PhoneNumber: "+919876543210", Code: second})
	require.NoError(t, err)
	if first != second {
		_, err = f.svc.Verify(ctx, VerifyRequest{PhoneNumber: "+919876543210", Code: first})
		require.Error(t, err)
	}
}

func TestSendWithoutGatewayLogsCode(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.Send(context.Background(), SendRequest{PhoneNumber: "+919876543210"})
	require.NoError(t, err)

	code := f.storedCode(t, "+919876543210")
	assert.Contains(t, f.logs.String(), code)
}

func TestSendSwallowsDispatchFailure(t *testing.T) {
	sms := &stubSMS{err: fmt.Errorf("gateway down")}
	f := newFixture(t, sms, nil)

	_, err := f.svc.Send(context.Background(), SendRequest{PhoneNumber: "+919876543210"})
	require.NoError(t, err)

	code := f.storedCode(t, "+919876543210")
	assert.Contains(t, f.logs.String(), code)
}

func TestVerifyConsumesCodeOnce(t *testing.T) {
	f := newFixture(t, &stubSMS{}, nil)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, SendRequest{PhoneNumber: "+919876543210"})
	require.NoError(t, err)
	code := f.storedCode(t, "+919876543210")

	resp, err := f.svc.Verify(ctx, VerifyRequest{PhoneNumber: "+919876543210", Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, "+919876543210", resp.User.PhoneNumber)

	_, err = f.svc.Verify(ctx, VerifyRequest{PhoneNumber: "+919876543210", Code: code})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, invalidOTPMessage, typed.Message())
}

func TestVerifyWrongCode(t *testing.T) {
	f := newFixture(t, &stubSMS{}, nil)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, SendRequest{PhoneNumber: "+919876543210"})
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, VerifyRequest{PhoneNumber: "+919876543210", Code: "0000"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// A failed attempt must not burn the stored code.
	code := f.storedCode(t, "+919876543210")
	_, err = f.svc.Verify(ctx, VerifyRequest{PhoneNumber: "+919876543210", Code: code})
	require.NoError(t, err)
}

func TestVerifyCreatesUserOnFirstLogin(t *testing.T) {
	f := newFixture(t, &stubSMS{}, nil)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, SendRequest{PhoneNumber: "+919876543210"})
	require.NoError(t, err)
	code := f.storedCode(t, "+919876543210")

	resp, err := f.svc.Verify(ctx, VerifyRequest{PhoneNumber: "+919876543210", Code: code})
	require.NoError(t, err)
	assert.Equal(t, 1, f.users.created)
	assert.False(t, resp.User.IsProfileComplete)
}

func TestVerifyExistingUserNotDuplicated(t *testing.T) {
	existing := &models.User{ID: 3, PhoneNumber: "+919876543210", Name: "Asha", IsActive: true}
	f := newFixture(t, &stubSMS{}, newStubUsers(existing))
	ctx := context.Background()

	_, err := f.svc.Send(ctx, SendRequest{PhoneNumber: "+919876543210"})
	require.NoError(t, err)
	code := f.storedCode(t, "+919876543210")

	resp, err := f.svc.Verify(ctx, VerifyRequest{PhoneNumber: "+919876543210", Code: code})
	require.NoError(t, err)
	assert.Equal(t, 0, f.users.created)
	assert.Equal(t, "Asha", resp.User.Name)
}

func TestVerifyInactiveUserRejected(t *testing.T) {
	existing := &models.User{ID: 3, PhoneNumber: "+919876543210", IsActive: false}
	f := newFixture(t, &stubSMS{}, newStubUsers(existing))
	ctx := context.Background()

	_, err := f.svc.Send(ctx, SendRequest{PhoneNumber: "+919876543210"})
	require.NoError(t, err)
	code := f.storedCode(t, "+919876543210")

	_, err = f.svc.Verify(ctx, VerifyRequest{PhoneNumber: "+919876543210", Code: code})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		value, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, value, 1000)
		assert.LessOrEqual(t, value, 9999)
	}
}
