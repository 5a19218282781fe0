package downloadservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/kv"
	downloadrepo "github.com/GlebRadaev/profilebot/internal/repo/download-repo"
	ledgerrepo "github.com/GlebRadaev/profilebot/internal/repo/ledger-repo"
	"github.com/GlebRadaev/profilebot/pkg/auth"
)

var opts = Options{PinLength: 6, TTL: time.Hour, MaxDownloads: 3}

func NewMock(t *testing.T) (*Service, *MockRepo, *MockLedgerRepo) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	ledgerRepo := NewMockLedgerRepo(ctrl)
	return New(repo, ledgerRepo, &auth.HashService{Cost: bcrypt.MinCost}, opts), repo, ledgerRepo
}

type fixture struct {
	service *Service
	ledger  *ledgerrepo.Repository
	mr      *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := kv.NewRedisStore(client)
	ledger := ledgerrepo.New(store, 50)
	return &fixture{
		service: New(downloadrepo.New(store), ledger, &auth.HashService{Cost: bcrypt.MinCost}, opts),
		ledger:  ledger,
		mr:      mr,
	}
}

func (f *fixture) issue(t *testing.T, p IssueParams) *domain.IssuedLink {
	if p.Payload == nil {
		p.Payload = []byte("<plist/>")
	}
	if p.FileName == "" {
		p.FileName = "config.mobileconfig"
	}
	if p.OwnerID == 0 {
		p.OwnerID = 5
	}
	link, err := f.service.Issue(context.Background(), p)
	require.NoError(t, err)
	return link
}

func TestIssue(t *testing.T) {
	f := newFixture(t)

	link := f.issue(t, IssueParams{})
	assert.Len(t, link.PIN, 6)
	for _, r := range link.PIN {
		assert.True(t, r >= '0' && r <= '9')
	}
	assert.Equal(t, time.Hour, f.mr.TTL("download:"+link.ID))

	custom := f.issue(t, IssueParams{PIN: "123456", TTL: 10 * time.Minute, MaxDownloads: 1})
	assert.Equal(t, "123456", custom.PIN)
	assert.Equal(t, 10*time.Minute, f.mr.TTL("download:"+custom.ID))

	status, err := f.service.Status(context.Background(), custom.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.DownloadsRemaining)
	assert.Equal(t, "config.mobileconfig", status.FileName)

	_, err = f.service.Issue(context.Background(), IssueParams{OwnerID: 1, FileName: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIssue_StoreFailure(t *testing.T) {
	service, repo, _ := NewMock(t)
	repo.EXPECT().Create(gomock.Any(), gomock.Any(), time.Hour).Return(errors.New("store down"))

	link, err := service.Issue(context.Background(), IssueParams{OwnerID: 1, Payload: []byte("x"), FileName: "x"})
	assert.Error(t, err)
	assert.Nil(t, link)
}

func TestBindSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	link := f.issue(t, IssueParams{})

	token, err := f.service.BindSession(ctx, link.ID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	again, err := f.service.BindSession(ctx, link.ID, token)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	other, err := f.service.BindSession(ctx, link.ID, "forged")
	require.NoError(t, err)
	assert.NotEqual(t, "forged", other)
	assert.NotEqual(t, token, other)

	_, err = f.service.BindSession(ctx, "missing", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBindSession_KeepsNewestSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	link := f.issue(t, IssueParams{PIN: "482913", MaxDownloads: 3})

	tokens := make([]string, 0, maxSessions+1)
	for range maxSessions + 1 {
		token, err := f.service.BindSession(ctx, link.ID, "")
		require.NoError(t, err)
		tokens = append(tokens, token)
	}

	_, err := f.service.FetchPayload(ctx, link.ID, "482913", tokens[0])
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	for _, token := range []string{tokens[1], tokens[maxSessions]} {
		_, err = f.service.FetchPayload(ctx, link.ID, "482913", token)
		assert.NoError(t, err)
	}

	again, err := f.service.BindSession(ctx, link.ID, tokens[maxSessions])
	require.NoError(t, err)
	assert.Equal(t, tokens[maxSessions], again)
}

func TestFetchPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	link := f.issue(t, IssueParams{PIN: "482913"})
	token, err := f.service.BindSession(ctx, link.ID, "")
	require.NoError(t, err)

	tests := []struct {
		name          string
		id            string
		pin           string
		token         string
		expectedError error
	}{
		{name: "Wrong PIN", id: link.ID, pin: "000000", token: token, expectedError: domain.ErrUnauthorized},
		{name: "Unbound session", id: link.ID, pin: "482913", token: "stranger", expectedError: domain.ErrUnauthorized},
		{name: "No session", id: link.ID, pin: "482913", token: "", expectedError: domain.ErrUnauthorized},
		{name: "Missing link", id: "missing", pin: "482913", token: token, expectedError: domain.ErrNotFound},
		{name: "Success", id: link.ID, pin: "482913", token: token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := f.service.FetchPayload(ctx, tt.id, tt.pin, tt.token)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, record)
			} else {
				require.NoError(t, err)
				assert.Equal(t, []byte("<plist/>"), record.Payload)
				assert.Equal(t, 1, record.DownloadsUsed)
			}
		})
	}

	events, err := f.ledger.DownloadEvents(ctx, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, link.ID, events[0].LinkID)
}

func TestFetchPayload_CapUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	link := f.issue(t, IssueParams{PIN: "111111"})
	token, err := f.service.BindSession(ctx, link.ID, "")
	require.NoError(t, err)

	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.FetchPayload(ctx, link.ID, "111111", token)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrLimitReached)
	}
	assert.Equal(t, 3, succeeded)

	_, err = f.service.FetchPayload(ctx, link.ID, "000000", "nobody")
	assert.ErrorIs(t, err, domain.ErrLimitReached)

	status, err := f.service.Status(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, status.DownloadsRemaining)
}

func TestExpiredLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := f.issue(t, IssueParams{PIN: "123456", TTL: -time.Minute})
	_, err := f.service.BindSession(ctx, past.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.service.FetchPayload(ctx, past.ID, "123456", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.service.Status(ctx, past.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	short := f.issue(t, IssueParams{PIN: "123456", TTL: time.Minute})
	token, err := f.service.BindSession(ctx, short.ID, "")
	require.NoError(t, err)
	f.mr.FastForward(2 * time.Minute)
	_, err = f.service.FetchPayload(ctx, short.ID, "123456", token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpiredByClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	link := f.issue(t, IssueParams{PIN: "123456"})
	token, err := f.service.BindSession(ctx, link.ID, "")
	require.NoError(t, err)

	f.service.now = func() time.Time { return link.ExpiresAt }
	_, err = f.service.FetchPayload(ctx, link.ID, "123456", token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGeneratePIN(t *testing.T) {
	pin, err := generatePIN(8)
	require.NoError(t, err)
	assert.Len(t, pin, 8)

	_, err = generatePIN(0)
	assert.Error(t, err)
}
