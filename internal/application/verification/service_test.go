package verification

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/nearnest/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Upsert(ctx context.Context, accountID, email string) error {
	return m.Called(ctx, accountID, email).Error(0)
}
func (m *mockAccountStore) Update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	return m.Called(ctx, accountID, updates).Error(0)
}

type mockVerificationStore struct{ mock.Mock }

func (m *mockVerificationStore) Put(ctx context.Context, v *domain.EmailVerification) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockVerificationStore) Get(ctx context.Context, accountID string) (*domain.EmailVerification, error) {
	args := m.Called(ctx, accountID)
	if v, _ := args.Get(0).(*domain.EmailVerification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationStore) Delete(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}
func (m *mockVerificationStore) IncrementAttempts(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

type mockEmailLogStore struct{ mock.Mock }

func (m *mockEmailLogStore) Put(ctx context.Context, l *domain.EmailLog) error {
	return m.Called(ctx, l).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendVerificationCode(to, code string, ttl time.Duration) error {
	return m.Called(to, code, ttl).Error(0)
}

// fakeVerificationStore is a map-backed store with the same replacement
// semantics as the DynamoDB repo: Put fully replaces any prior record.
type fakeVerificationStore struct {
	records map[string]domain.EmailVerification
}

func newFakeVerificationStore() *fakeVerificationStore {
	return &fakeVerificationStore{records: make(map[string]domain.EmailVerification)}
}

func (f *fakeVerificationStore) Put(_ context.Context, v *domain.EmailVerification) error {
	f.records[v.AccountID] = *v
	return nil
}

func (f *fakeVerificationStore) Get(_ context.Context, accountID string) (*domain.EmailVerification, error) {
	v, ok := f.records[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := v
	return &cp, nil
}

func (f *fakeVerificationStore) Delete(_ context.Context, accountID string) error {
	delete(f.records, accountID)
	return nil
}

func (f *fakeVerificationStore) IncrementAttempts(_ context.Context, accountID string) error {
	v, ok := f.records[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	v.Attempts++
	f.records[accountID] = v
	return nil
}

// captureMailer records every code it is asked to deliver.
type captureMailer struct {
	codes []string
}

func (m *captureMailer) SendVerificationCode(_, code string, _ time.Duration) error {
	m.codes = append(m.codes, code)
	return nil
}

// --- builder ---

func newService(as *mockAccountStore, vs *mockVerificationStore, el *mockEmailLogStore, ml *mockMailer) Service {
	deps := ServiceDeps{
		Accounts:      as,
		Verifications: vs,
		CodeTTL:       10 * time.Minute,
		MaxAttempts:   5,
	}
	// Keep nil interfaces nil so the service's optional-dependency checks fire.
	if el != nil {
		deps.EmailLogs = el
	}
	if ml != nil {
		deps.Mailer = ml
	}
	return NewService(deps)
}

// --- RequestCode ---

func TestRequestCode_Unauthenticated(t *testing.T) {
	svc := newService(nil, nil, nil, &mockMailer{})
	err := svc.RequestCode(context.Background(), "", "a@x.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestRequestCode_EmptyEmail(t *testing.T) {
	svc := newService(nil, nil, nil, &mockMailer{})
	err := svc.RequestCode(context.Background(), "u1", "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestRequestCode_MailerNotConfigured(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}

	svc := newService(as, vs, nil, nil)
	err := svc.RequestCode(context.Background(), "u1", "a@x.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmailNotConfigured))
	as.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	vs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRequestCode_HappyPath_HashMatchesEmailedCode(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	el := &mockEmailLogStore{}
	ml := &mockMailer{}

	as.On("Upsert", mock.Anything, "u1", "a@x.com").Return(nil)

	var sentCode string
	ml.On("SendVerificationCode", "a@x.com", mock.Anything, 10*time.Minute).
		Run(func(args mock.Arguments) { sentCode = args.String(1) }).
		Return(nil)

	var stored *domain.EmailVerification
	vs.On("Put", mock.Anything, mock.AnythingOfType("*domain.EmailVerification")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.EmailVerification) }).
		Return(nil)

	el.On("Put", mock.Anything, mock.AnythingOfType("*domain.EmailLog")).Return(nil)

	svc := newService(as, vs, el, ml)
	// Mixed case and padding must be normalized before anything is sent.
	err := svc.RequestCode(context.Background(), "u1", "  A@X.com ")
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, "u1", stored.AccountID)
	assert.Equal(t, 0, stored.Attempts)
	assert.Regexp(t, regexp.MustCompile(`^[1-9][0-9]{5}$`), sentCode)
	assert.Equal(t, hashCode(sentCode), stored.CodeHash)
	assert.NotContains(t, stored.CodeHash, sentCode)

	wantExpiry := time.Now().Add(10 * time.Minute).Unix()
	assert.InDelta(t, wantExpiry, stored.ExpiresAt, 5)

	as.AssertExpectations(t)
	vs.AssertExpectations(t)
	el.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestRequestCode_SendFailure_NothingPersisted(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	ml := &mockMailer{}

	as.On("Upsert", mock.Anything, "u1", "a@x.com").Return(nil)
	ml.On("SendVerificationCode", "a@x.com", mock.Anything, mock.Anything).
		Return(errors.New("smtp: connection refused"))

	svc := newService(as, vs, nil, ml)
	err := svc.RequestCode(context.Background(), "u1", "a@x.com")

	require.Error(t, err)
	vs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRequestCode_UpsertFailure_Propagates(t *testing.T) {
	as := &mockAccountStore{}
	ml := &mockMailer{}
	as.On("Upsert", mock.Anything, "u1", "a@x.com").Return(errors.New("dynamo unavailable"))

	svc := newService(as, nil, nil, ml)
	err := svc.RequestCode(context.Background(), "u1", "a@x.com")

	require.Error(t, err)
	ml.AssertNotCalled(t, "SendVerificationCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestCode_EmailLogFailure_IsNonFatal(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	el := &mockEmailLogStore{}
	ml := &mockMailer{}

	as.On("Upsert", mock.Anything, "u1", "a@x.com").Return(nil)
	ml.On("SendVerificationCode", "a@x.com", mock.Anything, mock.Anything).Return(nil)
	vs.On("Put", mock.Anything, mock.AnythingOfType("*domain.EmailVerification")).Return(nil)
	el.On("Put", mock.Anything, mock.AnythingOfType("*domain.EmailLog")).Return(errors.New("write throttled"))

	svc := newService(as, vs, el, ml)
	err := svc.RequestCode(context.Background(), "u1", "a@x.com")
	require.NoError(t, err)
}

func TestRequestCode_Reissue_InvalidatesPriorCode(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Upsert", mock.Anything, "u1", "a@x.com").Return(nil)
	as.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)

	vs := newFakeVerificationStore()
	ml := &captureMailer{}

	svc := NewService(ServiceDeps{
		Accounts:      as,
		Verifications: vs,
		Mailer:        ml,
		CodeTTL:       10 * time.Minute,
		MaxAttempts:   5,
	})

	ctx := context.Background()
	require.NoError(t, svc.RequestCode(ctx, "u1", "a@x.com"))
	require.NoError(t, svc.RequestCode(ctx, "u1", "a@x.com"))

	oldCode := ml.codes[0]
	newCode := ml.codes[len(ml.codes)-1]
	// A fresh draw can collide with the previous one; reissue until it doesn't.
	for i := 0; oldCode == newCode && i < 3; i++ {
		require.NoError(t, svc.RequestCode(ctx, "u1", "a@x.com"))
		newCode = ml.codes[len(ml.codes)-1]
	}
	require.NotEqual(t, oldCode, newCode)

	// The superseded code must no longer validate.
	err := svc.VerifyCode(ctx, "u1", oldCode)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))

	// The latest code must.
	require.NoError(t, svc.VerifyCode(ctx, "u1", newCode))

	// And it is single-use: the record is gone after success.
	err = svc.VerifyCode(ctx, "u1", newCode)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- VerifyCode ---

func TestVerifyCode_Unauthenticated(t *testing.T) {
	svc := newService(nil, nil, nil, nil)
	err := svc.VerifyCode(context.Background(), "", "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestVerifyCode_BadSyntax_NoAttemptRecorded(t *testing.T) {
	vs := &mockVerificationStore{}
	svc := newService(nil, vs, nil, nil)

	for _, code := range []string{"", "12345", "1234567", "12345a", "12 456"} {
		err := svc.VerifyCode(context.Background(), "u1", code)
		require.Error(t, err, "code %q", code)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument), "code %q", code)
	}
	vs.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	vs.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
}

func TestVerifyCode_NoRecord(t *testing.T) {
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := newService(nil, vs, nil, nil)
	err := svc.VerifyCode(context.Background(), "u1", "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerifyCode_StoreFailure_IsNotReportedAsNotFound(t *testing.T) {
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "u1").Return(nil, errors.New("dynamo unavailable"))

	svc := newService(nil, vs, nil, nil)
	err := svc.VerifyCode(context.Background(), "u1", "123456")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	vs.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
	vs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestVerifyCode_AttemptsExhausted_TerminalEvenWithCorrectCode(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "u1").Return(&domain.EmailVerification{
		AccountID: "u1",
		CodeHash:  hashCode("654321"),
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
		Attempts:  5,
	}, nil)
	vs.On("Delete", mock.Anything, "u1").Return(nil)

	svc := newService(as, vs, nil, nil)
	err := svc.VerifyCode(context.Background(), "u1", "654321")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTooManyAttempts))
	vs.AssertCalled(t, "Delete", mock.Anything, "u1")
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_Expired_DeletesRecord(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "u1").Return(&domain.EmailVerification{
		AccountID: "u1",
		CodeHash:  hashCode("654321"),
		ExpiresAt: time.Now().Add(-time.Minute).Unix(), // expired
		Attempts:  0,
	}, nil)
	vs.On("Delete", mock.Anything, "u1").Return(nil)

	svc := newService(as, vs, nil, nil)
	err := svc.VerifyCode(context.Background(), "u1", "654321") // correct code

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExpired))
	vs.AssertCalled(t, "Delete", mock.Anything, "u1")
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_Mismatch_IncrementsAttempts(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "u1").Return(&domain.EmailVerification{
		AccountID: "u1",
		CodeHash:  hashCode("654321"),
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
		Attempts:  1,
	}, nil)
	vs.On("IncrementAttempts", mock.Anything, "u1").Return(nil)

	svc := newService(as, vs, nil, nil)
	err := svc.VerifyCode(context.Background(), "u1", "111111")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))
	vs.AssertCalled(t, "IncrementAttempts", mock.Anything, "u1")
	vs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_LeadingZeroCandidate_IsMismatchNotInvalid(t *testing.T) {
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "u1").Return(&domain.EmailVerification{
		AccountID: "u1",
		CodeHash:  hashCode("654321"),
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
		Attempts:  0,
	}, nil)
	vs.On("IncrementAttempts", mock.Anything, "u1").Return(nil)

	svc := newService(nil, vs, nil, nil)
	// Syntactically valid, but the generator never produces a leading zero.
	err := svc.VerifyCode(context.Background(), "u1", "012345")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))
}

func TestVerifyCode_Success_MarksAccountAndDeletesRecord(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "u1").Return(&domain.EmailVerification{
		AccountID: "u1",
		CodeHash:  hashCode("654321"),
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
		Attempts:  1,
	}, nil)
	as.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		return m["status"] == domain.StatusEmailVerified
	})).Return(nil)
	vs.On("Delete", mock.Anything, "u1").Return(nil)

	svc := newService(as, vs, nil, nil)
	err := svc.VerifyCode(context.Background(), "u1", "654321")

	require.NoError(t, err)
	as.AssertExpectations(t)
	vs.AssertExpectations(t)
}

func TestVerifyCode_SecondCallAfterSuccess_IsNotFound(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "u1").Return(&domain.EmailVerification{
		AccountID: "u1",
		CodeHash:  hashCode("654321"),
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
	}, nil).Once()
	as.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	vs.On("Delete", mock.Anything, "u1").Return(nil)
	// Record was deleted by the first call.
	vs.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := newService(as, vs, nil, nil)
	require.NoError(t, svc.VerifyCode(context.Background(), "u1", "654321"))

	err := svc.VerifyCode(context.Background(), "u1", "654321")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerifyCode_SixWrongAttempts_ExhaustsThenNotFound(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}

	record := func(attempts int) *domain.EmailVerification {
		return &domain.EmailVerification{
			AccountID: "u1",
			CodeHash:  hashCode("654321"),
			ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
			Attempts:  attempts,
		}
	}

	// Calls 1-5: mismatch, counter recorded each time.
	for i := 0; i < 5; i++ {
		vs.On("Get", mock.Anything, "u1").Return(record(i), nil).Once()
	}
	vs.On("IncrementAttempts", mock.Anything, "u1").Return(nil).Times(5)
	// Call 6: budget exceeded, record deleted.
	vs.On("Get", mock.Anything, "u1").Return(record(5), nil).Once()
	vs.On("Delete", mock.Anything, "u1").Return(nil).Once()
	// Call 7: the originally-correct code finds nothing.
	vs.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound).Once()

	svc := newService(as, vs, nil, nil)

	for i := 0; i < 5; i++ {
		err := svc.VerifyCode(context.Background(), "u1", "111111")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrCodeMismatch), "call %d", i+1)
	}

	err := svc.VerifyCode(context.Background(), "u1", "111111")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTooManyAttempts))

	err = svc.VerifyCode(context.Background(), "u1", "654321")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	vs.AssertExpectations(t)
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_MarkVerifiedFailure_KeepsRecord(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "u1").Return(&domain.EmailVerification{
		AccountID: "u1",
		CodeHash:  hashCode("654321"),
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
	}, nil)
	as.On("Update", mock.Anything, "u1", mock.Anything).Return(errors.New("dynamo unavailable"))

	svc := newService(as, vs, nil, nil)
	err := svc.VerifyCode(context.Background(), "u1", "654321")

	require.Error(t, err)
	vs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// --- code generation ---

func TestGenerateCode_RangeAndFormat(t *testing.T) {
	re := regexp.MustCompile(`^[1-9][0-9]{5}$`)
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestHashCode_Deterministic(t *testing.T) {
	assert.Equal(t, hashCode("123456"), hashCode("123456"))
	assert.NotEqual(t, hashCode("123456"), hashCode("123457"))
	assert.Len(t, hashCode("123456"), 64)
}
