package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authService "github.com/allisson/vaulty/internal/auth/service"
	authUsecase "github.com/allisson/vaulty/internal/auth/usecase"
	"github.com/allisson/vaulty/internal/command"
	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	cryptoService "github.com/allisson/vaulty/internal/crypto/service"
	"github.com/allisson/vaulty/internal/vault/repository"
	vaultUsecase "github.com/allisson/vaulty/internal/vault/usecase"
)

// testSourceGroup matches the source address httptest assigns to requests
// (192.0.2.1).
const testSourceGroup = "192.0.2.0/24"

const testPassword = "correct-horse-battery"

type httpFixture struct {
	router   *gin.Engine
	db       *repository.Database
	sessions *SessionManager
	users    vaultUsecase.UserUseCase
	secrets  vaultUsecase.SecretUseCase
	keys     vaultUsecase.AccessKeyUseCase
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, _, err := repository.Open(filepath.Join(t.TempDir(), "vaulty.db"))
	require.NoError(t, err)

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecdsaKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	envelope := cryptoService.NewEnvelope(
		cryptoService.NewRSAKeyWrapper(&rsaKey.PublicKey, rsaKey),
		cryptoService.NewAEADManager(),
		cryptoDomain.AESGCM,
	)
	signer := cryptoService.NewECDSASigner(ecdsaKey, &ecdsaKey.PublicKey)
	passwords := authService.NewPasswordService()
	accessKeys := authService.NewAccessKeyService(signer, db, 20, 40)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	auth := authUsecase.NewAuthUseCase(
		db, db, passwords, accessKeys,
		5*time.Millisecond, 5*time.Millisecond,
		logger,
	)

	users := vaultUsecase.NewUserUseCase(db, passwords, 20)
	vaults := vaultUsecase.NewVaultUseCase(db)
	secrets := vaultUsecase.NewSecretUseCase(db, envelope)
	keys := vaultUsecase.NewAccessKeyUseCase(db, accessKeys)

	sessions := NewSessionManager(time.Hour)
	dispatcher := command.NewDispatcher(users, vaults, secrets, keys)

	loginHandler := NewLoginHandler(auth, sessions, "vaulty-test", logger)
	commandHandler := NewCommandHandler(dispatcher, sessions, logger)
	secretHandler := NewSecretHandler(secrets, auth, logger)

	router := gin.New()
	router.POST("/v1/login", loginHandler.LoginHandler)
	router.POST("/v1/command",
		SessionAuthMiddleware(sessions, db, logger),
		commandHandler.CommandHandler,
	)
	vaultGroup := router.Group("/v1/vaults", AccessKeyAuthMiddleware(auth, logger))
	vaultGroup.GET("/:vault", secretHandler.ListHandler)
	vaultGroup.GET("/:vault/:secret", secretHandler.GetHandler)
	vaultGroup.PUT("/:vault/:secret", secretHandler.PutHandler)
	vaultGroup.DELETE("/:vault/:secret", secretHandler.DeleteHandler)

	return &httpFixture{
		router:   router,
		db:       db,
		sessions: sessions,
		users:    users,
		secrets:  secrets,
		keys:     keys,
	}
}

func (f *httpFixture) addUser(t *testing.T, username, role string, groups []string) {
	t.Helper()
	_, err := f.users.Create(context.Background(), &vaultUsecase.CreateUserInput{
		Username:       username,
		Password:       testPassword,
		Role:           role,
		SecurityGroups: groups,
	})
	require.NoError(t, err)
}

func (f *httpFixture) addAccessKey(
	t *testing.T,
	vault string,
	permissions []string,
	groups []string,
) *vaultUsecase.CreateAccessKeyOutput {
	t.Helper()
	out, err := f.keys.Create(context.Background(), &vaultUsecase.CreateAccessKeyInput{
		Vault:          vault,
		Permissions:    permissions,
		SecurityGroups: groups,
	})
	require.NoError(t, err)
	return out
}

func (f *httpFixture) do(t *testing.T, method, target, authHeader string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *httpFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/v1/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func accessKeyHeader(out *vaultUsecase.CreateAccessKeyOutput) string {
	return fmt.Sprintf("VAULTY %s:%s", out.Key.ID, out.PlainSecretKey)
}

func TestLoginHandler(t *testing.T) {
	fixture := newHTTPFixture(t)
	fixture.addUser(t, "alice", "admin", []string{testSourceGroup})

	t.Run("successful login returns token", func(t *testing.T) {
		w := fixture.do(t, http.MethodPost, "/v1/login", "", map[string]string{
			"username": "alice",
			"password": testPassword,
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "token")
		assert.Contains(t, w.Body.String(), "vaulty-test")
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		w := fixture.do(t, http.MethodPost, "/v1/login", "", map[string]string{
			"username": "alice",
			"password": "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user gets the same response as wrong password", func(t *testing.T) {
		wrongPassword := fixture.do(t, http.MethodPost, "/v1/login", "", map[string]string{
			"username": "alice",
			"password": "wrong",
		})
		unknownUser := fixture.do(t, http.MethodPost, "/v1/login", "", map[string]string{
			"username": "nobody",
			"password": testPassword,
		})

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
		assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	})

	t.Run("source outside security groups rejected", func(t *testing.T) {
		fixture.addUser(t, "remote", "user", []string{"10.0.0.0/8"})

		w := fixture.do(t, http.MethodPost, "/v1/login", "", map[string]string{
			"username": "remote",
			"password": testPassword,
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/login", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		fixture.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := fixture.do(t, http.MethodPost, "/v1/login", "", map[string]string{
			"username": "alice",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCommandHandler(t *testing.T) {
	fixture := newHTTPFixture(t)
	fixture.addUser(t, "admin", "admin", []string{testSourceGroup})
	fixture.addUser(t, "bob", "user", []string{testSourceGroup})

	adminToken := fixture.login(t, "admin", testPassword)
	bobToken := fixture.login(t, "bob", testPassword)

	t.Run("admin inserts a user", func(t *testing.T) {
		w := fixture.do(t, http.MethodPost, "/v1/command", "Bearer "+adminToken, command.Request{
			Op:             "user.insert",
			Username:       "carol",
			Password:       "another-password",
			Role:           "user",
			SecurityGroups: []string{testSourceGroup},
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "carol")
	})

	t.Run("non-admin cannot manage users", func(t *testing.T) {
		w := fixture.do(t, http.MethodPost, "/v1/command", "Bearer "+bobToken, command.Request{
			Op:       "user.delete",
			Username: "carol",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("non-admin changes own password", func(t *testing.T) {
		w := fixture.do(t, http.MethodPost, "/v1/command", "Bearer "+bobToken, command.Request{
			Op:       "user.changePassword",
			Username: "bob",
			Password: "bob-new-password",
		})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w := fixture.do(t, http.MethodPost, "/v1/command", "", command.Request{Op: "vault.list"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		w := fixture.do(t, http.MethodPost, "/v1/command", "Bearer bogus", command.Request{Op: "vault.list"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown op", func(t *testing.T) {
		w := fixture.do(t, http.MethodPost, "/v1/command", "Bearer "+adminToken, command.Request{
			Op: "vault.explode",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("deleting a user revokes their sessions", func(t *testing.T) {
		fixture.addUser(t, "temp", "user", []string{testSourceGroup})
		tempToken := fixture.login(t, "temp", testPassword)

		w := fixture.do(t, http.MethodPost, "/v1/command", "Bearer "+adminToken, command.Request{
			Op:       "user.delete",
			Username: "temp",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = fixture.do(t, http.MethodPost, "/v1/command", "Bearer "+tempToken, command.Request{
			Op: "vault.list",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSecretEndpoints(t *testing.T) {
	fixture := newHTTPFixture(t)

	allCaps := []string{"list-secrets", "create-secrets", "delete-secrets", "decrypt-secrets"}
	fullKey := fixture.addAccessKey(t, "app", allCaps, []string{testSourceGroup})

	t.Run("put get list delete round trip", func(t *testing.T) {
		value := base64.StdEncoding.EncodeToString([]byte("hunter2"))

		w := fixture.do(t, http.MethodPut, "/v1/vaults/app/db-password",
			accessKeyHeader(fullKey), map[string]string{"value": value, "content_kind": "text"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = fixture.do(t, http.MethodGet, "/v1/vaults/app/db-password", accessKeyHeader(fullKey), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "db-password", resp.Name)
		decoded, err := base64.StdEncoding.DecodeString(resp.Value)
		require.NoError(t, err)
		assert.Equal(t, "hunter2", string(decoded))

		w = fixture.do(t, http.MethodGet, "/v1/vaults/app", accessKeyHeader(fullKey), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "db-password")
		assert.NotContains(t, w.Body.String(), resp.Value)

		w = fixture.do(t, http.MethodDelete, "/v1/vaults/app/db-password", accessKeyHeader(fullKey), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = fixture.do(t, http.MethodGet, "/v1/vaults/app/db-password", accessKeyHeader(fullKey), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("key without decrypt capability can list but not read", func(t *testing.T) {
		value := base64.StdEncoding.EncodeToString([]byte("top-secret"))
		w := fixture.do(t, http.MethodPut, "/v1/vaults/app/api-token",
			accessKeyHeader(fullKey), map[string]string{"value": value})
		require.Equal(t, http.StatusCreated, w.Code)

		listOnly := fixture.addAccessKey(t, "app", []string{"list-secrets"}, []string{testSourceGroup})

		w = fixture.do(t, http.MethodGet, "/v1/vaults/app", accessKeyHeader(listOnly), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = fixture.do(t, http.MethodGet, "/v1/vaults/app/api-token", accessKeyHeader(listOnly), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = fixture.do(t, http.MethodDelete, "/v1/vaults/app/api-token", accessKeyHeader(listOnly), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("key scoped to another vault is forbidden", func(t *testing.T) {
		otherKey := fixture.addAccessKey(t, "other", allCaps, []string{testSourceGroup})

		w := fixture.do(t, http.MethodGet, "/v1/vaults/app", accessKeyHeader(otherKey), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("key outside its security groups rejected", func(t *testing.T) {
		remoteKey := fixture.addAccessKey(t, "app", allCaps, []string{"10.0.0.0/8"})

		w := fixture.do(t, http.MethodGet, "/v1/vaults/app", accessKeyHeader(remoteKey), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret key rejected", func(t *testing.T) {
		header := fmt.Sprintf("VAULTY %s:%s", fullKey.Key.ID, "not-the-secret")

		w := fixture.do(t, http.MethodGet, "/v1/vaults/app", header, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing and malformed authorization headers", func(t *testing.T) {
		w := fixture.do(t, http.MethodGet, "/v1/vaults/app", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = fixture.do(t, http.MethodGet, "/v1/vaults/app", "Bearer something", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = fixture.do(t, http.MethodGet, "/v1/vaults/app", "VAULTY missing-separator", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid base64 value rejected", func(t *testing.T) {
		w := fixture.do(t, http.MethodPut, "/v1/vaults/app/bad-value",
			accessKeyHeader(fullKey), map[string]string{"value": "not base64!!"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
