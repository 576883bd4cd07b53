package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery-shop-backend/internal/model"
	"bakery-shop-backend/internal/service/servicetest"
)

func authServer(t *testing.T, status *atomic.Int64, user authUser) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/current" || r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteVerifier(t *testing.T) {
	var status atomic.Int64
	status.Store(http.StatusOK)
	srv := authServer(t, &status, authUser{
		ID: "64b7f0c2a1b2c3d4e5f60718", Name: "Root", Permissions: []string{"user", "admin"}, Enabled: true,
	})
	st := servicetest.NewStore()
	v := NewRemoteVerifier(srv.URL, st.Users())
	ctx := context.Background()

	id, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.UserID)
	assert.Equal(t, model.RoleAdmin, id.Role)

	u, ok := st.User(id.UserID)
	require.True(t, ok, "user mirrored locally")
	assert.Equal(t, "Root", u.Name)

	_, err = v.Verify(ctx, "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRemoteVerifier_Disabled(t *testing.T) {
	var status atomic.Int64
	status.Store(http.StatusOK)
	srv := authServer(t, &status, authUser{ID: "u1", Name: "Gone", Enabled: false})
	v := NewRemoteVerifier(srv.URL, servicetest.NewStore().Users())

	_, err := v.Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRemoteVerifier_BreakerOpens(t *testing.T) {
	var status atomic.Int64
	status.Store(http.StatusBadGateway)
	srv := authServer(t, &status, authUser{ID: "u1", Enabled: true})
	v := NewRemoteVerifier(srv.URL, servicetest.NewStore().Users())
	ctx := context.Background()

	// Rejections do not count against the auth service.
	for i := 0; i < 10; i++ {
		_, err := v.Verify(ctx, "bad")
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
	assert.Equal(t, gobreaker.StateClosed, v.cb.State())

	for i := 0; i < 5; i++ {
		_, err := v.Verify(ctx, "good")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	}
	assert.Equal(t, gobreaker.StateOpen, v.cb.State())

	status.Store(http.StatusOK)
	_, err := v.Verify(ctx, "good")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
