package service

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bakery-shop-backend/internal/model"
)

// RemoteVerifier validates tokens against an external auth service at
// GET <authURL>/users/current and mirrors the returned user locally.
type RemoteVerifier struct {
	authURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[*authUser]
	users   UserRepository
}

type authUser struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Login       string   `json:"login"`
	Enabled     bool     `json:"enabled"`
}

func NewRemoteVerifier(authURL string, users UserRepository) *RemoteVerifier {
	return &RemoteVerifier{
		authURL: authURL,
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb: gobreaker.NewCircuitBreaker[*authUser](gobreaker.Settings{
			Name:        "auth-service",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			// A rejected token is a healthy answer from the auth service.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrUnauthorized)
			},
		}),
		users: users,
	}
}

func (a *RemoteVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	user, err := a.cb.Execute(func() (*authUser, error) {
		return a.currentUser(ctx, token)
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return Identity{}, err
		}
		return Identity{}, errors.Wrap(err, "auth service")
	}

	role := model.RoleUser
	if slices.Contains(user.Permissions, "admin") {
		role = model.RoleAdmin
	}
	if _, err := a.users.Ensure(ctx, user.ID, user.Name, role); err != nil {
		return Identity{}, errors.Wrap(err, "ensure user")
	}
	return Identity{UserID: user.ID, Role: role}, nil
}

func (a *RemoteVerifier) currentUser(ctx context.Context, token string) (*authUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.authURL+"/users/current", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "auth request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("auth service returned %d", resp.StatusCode)
	}

	var user authUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "decode auth user")
	}
	if !user.Enabled || user.ID == "" {
		return nil, ErrUnauthorized
	}
	return &user, nil
}
