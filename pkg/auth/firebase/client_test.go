package firebase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formstate/pkg/auth"
)

func newTestServer(t *testing.T, status int, reason string) (*httptest.Server, *signInRequest) {
	t.Helper()
	var got signInRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"idToken":"token","email":"test@email.com","displayName":"Test User"}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"` + reason + `"}}`))
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestClient_SignInSuccess(t *testing.T) {
	server, got := newTestServer(t, http.StatusOK, "")
	client, err := New("test-key", WithEndpoint(server.URL+"/"), WithHTTPClient(server.Client()))
	require.NoError(t, err)

	require.NoError(t, client.SignIn(context.Background(), "test@email.com", "testpassword"))
	assert.Equal(t, signInRequest{Email: "test@email.com", Password: "testpassword", ReturnSecureToken: true}, *got)

	name, err := client.DisplayName(context.Background(), " Test@Email.com")
	require.NoError(t, err)
	assert.Equal(t, "Test User", name)
}

func TestClient_DisplayNameUnknownAccount(t *testing.T) {
	client, err := New("test-key")
	require.NoError(t, err)

	name, err := client.DisplayName(context.Background(), "nobody@email.com")
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestClient_SignInMapsReasons(t *testing.T) {
	cases := map[string]string{
		"EMAIL_NOT_FOUND":  auth.CodeUserNotFound,
		"INVALID_PASSWORD": auth.CodeWrongPassword,
		"TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled": auth.CodeTooManyRequests,
		"OPERATION_NOT_ALLOWED": "auth/operation-not-allowed",
	}
	for reason, want := range cases {
		t.Run(reason, func(t *testing.T) {
			server, _ := newTestServer(t, http.StatusBadRequest, reason)
			client, err := New("test-key", WithEndpoint(server.URL))
			require.NoError(t, err)

			err = client.SignIn(context.Background(), "test@email.com", "testpassword")
			assert.Equal(t, want, auth.CodeOf(err))
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	client, err := New("test-key", WithEndpoint("http://127.0.0.1:1"))
	require.NoError(t, err)

	err = client.SignIn(context.Background(), "a@b.co", "pw")
	assert.Equal(t, auth.CodeNetwork, auth.CodeOf(err))
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCodeForReason(t *testing.T) {
	assert.Equal(t, auth.CodeInvalidEmail, CodeForReason("INVALID_EMAIL"))
	assert.Equal(t, auth.CodeUserDisabled, CodeForReason("USER_DISABLED"))
	assert.Equal(t, auth.CodeInternal, CodeForReason(""))
}
