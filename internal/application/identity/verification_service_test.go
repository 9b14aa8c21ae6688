package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubSender struct {
	sent []*identity.VerificationCode
	err  error
}

func (s *stubSender) Send(_ context.Context, code *identity.VerificationCode) error {
	s.sent = append(s.sent, code)
	return s.err
}

func newVerificationFixture() (*VerificationService, *MockVerificationCodeRepository, *MockOrganizationRepository, *stubSender) {
	codes := new(MockVerificationCodeRepository)
	orgs := new(MockOrganizationRepository)
	sender := &stubSender{}
	svc := NewVerificationService(codes, orgs, sender, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, codes, orgs, sender
}

func TestVerificationService_Request(t *testing.T) {
	ctx := context.Background()
	svc, codes, orgs, sender := newVerificationFixture()
	org, err := organization.NewOrganization("sdn1", "SDN 1", organization.TypeSchool)
	require.NoError(t, err)

	orgs.On("FindByID", ctx, org.ID).Return(org, nil)
	codes.On("Create", ctx, mock.AnythingOfType("*identity.VerificationCode")).Return(nil)

	res, err := svc.Request(ctx, RequestCodeInput{OrgID: org.ID, Type: "EMAIL", Target: " sdn1@example.id "})
	require.NoError(t, err)
	assert.Equal(t, "email", res.Type)
	assert.Equal(t, "sdn1@example.id", res.Target)
	assert.Equal(t, testNow.Add(5*time.Minute), res.ExpiresAt)

	require.Len(t, sender.sent, 1)
	assert.Regexp(t, `^\d{6}$`, sender.sent[0].Code)

	_, err = svc.Request(ctx, RequestCodeInput{OrgID: org.ID, Type: "sms", Target: "x"})
	assert.Error(t, err)
}

func TestVerificationService_RequestUnknownOrg(t *testing.T) {
	ctx := context.Background()
	svc, _, orgs, _ := newVerificationFixture()
	id := uuid.New()
	orgs.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	_, err := svc.Request(ctx, RequestCodeInput{OrgID: id, Type: "email", Target: "a@b.c"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestVerificationService_RequestDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	svc, codes, orgs, sender := newVerificationFixture()
	sender.err = errors.New("gateway down")
	org, _ := organization.NewOrganization("sdn1", "SDN 1", organization.TypeSchool)

	orgs.On("FindByID", ctx, org.ID).Return(org, nil)
	codes.On("Create", ctx, mock.Anything).Return(nil)

	_, err := svc.Request(ctx, RequestCodeInput{OrgID: org.ID, Type: "whatsapp", Target: "0812"})
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}

func TestVerificationService_Confirm(t *testing.T) {
	ctx := context.Background()
	svc, codes, orgs, _ := newVerificationFixture()
	org, _ := organization.NewOrganization("sdn1", "SDN 1", organization.TypeSchool)
	vc := &identity.VerificationCode{
		ID:        uuid.New(),
		OrgID:     org.ID,
		Type:      organization.ChannelWhatsapp,
		Target:    "08123",
		Code:      "123456",
		ExpiresAt: testNow.Add(time.Minute),
	}

	codes.On("FindLatestActive", ctx, org.ID, organization.ChannelWhatsapp, "08123", "123456", testNow).Return(vc, nil)
	codes.On("MarkVerified", ctx, vc.ID, testNow).Return(nil)
	orgs.On("FindByID", ctx, org.ID).Return(org, nil)
	orgs.On("Save", ctx, org).Return(nil)

	got, err := svc.Confirm(ctx, ConfirmCodeInput{OrgID: org.ID, Type: "whatsapp", Target: "08123", Code: "123456"})
	require.NoError(t, err)
	require.NotNil(t, got.WhatsappVerifiedAt)
	assert.Equal(t, "08123", *got.ContactPhone)
	codes.AssertExpectations(t)
}

func TestVerificationService_ConfirmMismatch(t *testing.T) {
	ctx := context.Background()
	svc, codes, _, _ := newVerificationFixture()
	orgID := uuid.New()
	codes.On("FindLatestActive", ctx, orgID, organization.ChannelEmail, "a@b.c", "000000", testNow).Return(nil, shared.ErrNotFound)

	_, err := svc.Confirm(ctx, ConfirmCodeInput{OrgID: orgID, Type: "email", Target: "a@b.c", Code: "000000"})
	assert.ErrorIs(t, err, identity.ErrInvalidCode)
	assert.Equal(t, "Kode verifikasi salah atau sudah kedaluwarsa.", err.(*shared.DomainError).Message)

	_, err = svc.Confirm(ctx, ConfirmCodeInput{OrgID: orgID, Type: "email", Target: "a@b.c"})
	assert.ErrorIs(t, err, identity.ErrInvalidCode)
}

func TestVerificationService_ReapExpired(t *testing.T) {
	ctx := context.Background()
	svc, codes, _, _ := newVerificationFixture()
	cutoff := testNow.Add(-24 * time.Hour)
	codes.On("DeleteExpiredBefore", ctx, cutoff).Return(int64(4), nil)

	n, err := svc.ReapExpired(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestLogCodeSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewLogCodeSender(zap.New(core))
	code := &identity.VerificationCode{OrgID: uuid.New(), Type: organization.ChannelEmail, Target: "a@b.c", Code: "654321"}

	require.NoError(t, sender.Send(context.Background(), code))
	entries := logs.FilterMessage("Verification code issued").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "654321", entries[0].ContextMap()["code"])
}
