package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Donatronix/identity-center-ms-sub001/internal/application/kyc"
	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/identify"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockKYCSvc struct{ mock.Mock }

func (m *mockKYCSvc) HandleWebhook(ctx context.Context, wh kyc.Webhook) (*kyc.Outcome, error) {
	args := m.Called(ctx, wh)
	if o, _ := args.Get(0).(*kyc.Outcome); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockKYCSvc) StartSession(ctx context.Context, userID, documentType string) (*identify.SessionResponse, error) {
	args := m.Called(ctx, userID, documentType)
	if r, _ := args.Get(0).(*identify.SessionResponse); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUserDirectory struct{ mock.Mock }

func (m *mockUserDirectory) GetByIDs(ctx context.Context, userIDs []string) ([]domain.User, error) {
	args := m.Called(ctx, userIDs)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func newWebhookRouter(svc kyc.Service, users UserDirectory) http.Handler {
	h := NewWebhookHandler(svc, users, "pub-key")
	r := chi.NewRouter()
	r.Post("/v1/webhooks/identify/{type}", h.Identify)
	r.Post("/v1/webhooks/identities", h.Identities)
	return r
}

// --- Identify ---

func TestIdentify_PassesRawBodyAndHeaders(t *testing.T) {
	svc := &mockKYCSvc{}
	router := newWebhookRouter(svc, &mockUserDirectory{})

	body := []byte(`{"status":"success","verification":{"id":"x"}}`)
	svc.On("HandleWebhook", mock.Anything, kyc.Webhook{
		Kind:       "decisions",
		AuthClient: "pub-key",
		Signature:  "deadbeef",
		Payload:    body,
	}).Return(&kyc.Outcome{Type: "success", UserID: "u1"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identify/decisions", bytes.NewReader(body))
	req.Header.Set(identify.HeaderAuthClient, "pub-key")
	req.Header.Set(identify.HeaderSignature, "deadbeef")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
	svc.AssertExpectations(t)
}

func TestIdentify_UnknownType(t *testing.T) {
	svc := &mockKYCSvc{}
	router := newWebhookRouter(svc, &mockUserDirectory{})

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identify/selfies", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	svc.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything)
}

func TestIdentify_AuthFailuresMapTo401(t *testing.T) {
	for name, svcErr := range map[string]error{
		"bad auth client":   domain.ErrUnauthenticatedCallback,
		"missing signature": domain.ErrMissingSignature,
		"bad signature":     domain.ErrInvalidSignature,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &mockKYCSvc{}
			router := newWebhookRouter(svc, &mockUserDirectory{})
			svc.On("HandleWebhook", mock.Anything, mock.Anything).Return(nil, svcErr)

			req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identify/events", bytes.NewReader([]byte("{}")))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestIdentify_UnknownUser(t *testing.T) {
	svc := &mockKYCSvc{}
	router := newWebhookRouter(svc, &mockUserDirectory{})
	svc.On("HandleWebhook", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identify/decisions", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Identities ---

func identitiesRequestBody(t *testing.T, id interface{}) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"id": id})
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func TestIdentities_SingleID(t *testing.T) {
	users := &mockUserDirectory{}
	router := newWebhookRouter(&mockKYCSvc{}, users)

	users.On("GetByIDs", mock.Anything, []string{"u1"}).
		Return([]domain.User{{UserID: "u1", Username: "chinedu338"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identities", identitiesRequestBody(t, "u1"))
	req.Header.Set(identify.HeaderAuthClient, "pub-key")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env struct {
		Type string        `json:"type"`
		Data []domain.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "chinedu338", env.Data[0].Username)
}

func TestIdentities_IDList(t *testing.T) {
	users := &mockUserDirectory{}
	router := newWebhookRouter(&mockKYCSvc{}, users)

	users.On("GetByIDs", mock.Anything, []string{"u1", "u2"}).
		Return([]domain.User{{UserID: "u1"}, {UserID: "u2"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identities", identitiesRequestBody(t, []string{"u1", "u2"}))
	req.Header.Set(identify.HeaderAuthClient, "pub-key")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	users.AssertExpectations(t)
}

func TestIdentities_WrongAuthClient(t *testing.T) {
	users := &mockUserDirectory{}
	router := newWebhookRouter(&mockKYCSvc{}, users)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identities", identitiesRequestBody(t, "u1"))
	req.Header.Set(identify.HeaderAuthClient, "not-the-key")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	users.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestIdentities_MissingID(t *testing.T) {
	users := &mockUserDirectory{}
	router := newWebhookRouter(&mockKYCSvc{}, users)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identities", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(identify.HeaderAuthClient, "pub-key")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
