package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery-shop-backend/internal/model"
)

func home(isDefault bool) AddressInput {
	return AddressInput{
		Type: "Home", Address: "12 Baker Street", City: "Springfield",
		State: "IL", ZipCode: "62701", IsDefault: &isDefault,
	}
}

func defaultsOf(list []*model.Address) int {
	n := 0
	for _, a := range list {
		if a.IsDefault {
			n++
		}
	}
	return n
}

func TestAddress_Create(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	a, err := e.addrs.Create(ctx, e.alice.ID, home(false))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "USA", a.Country)
	assert.Equal(t, e.alice.ID, a.UserID)

	_, err = e.addrs.Create(ctx, e.alice.ID, AddressInput{Type: "Garage"})
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindValidation, se.Kind)
	assert.Contains(t, se.Reasons, "type must be one of [Home Work Other]")
	assert.Contains(t, se.Reasons, "city is required")
}

func TestAddress_SingleDefault(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	first, err := e.addrs.Create(ctx, e.alice.ID, home(true))
	require.NoError(t, err)
	second, err := e.addrs.Create(ctx, e.alice.ID, home(true))
	require.NoError(t, err)

	list, err := e.addrs.List(ctx, e.alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, defaultsOf(list))
	assert.Equal(t, second.ID, list[0].ID, "default listed first")

	_, err = e.addrs.SetDefault(ctx, e.identity(e.alice), first.ID)
	require.NoError(t, err)
	list, err = e.addrs.List(ctx, e.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, defaultsOf(list))
	assert.Equal(t, first.ID, list[0].ID)

	// Other users keep their own default.
	_, err = e.addrs.Create(ctx, e.bob.ID, home(true))
	require.NoError(t, err)
	list, err = e.addrs.List(ctx, e.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, defaultsOf(list))
}

func TestAddress_ConcurrentSetDefault(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 8; i++ {
		a, err := e.addrs.Create(ctx, e.alice.ID, home(false))
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.addrs.SetDefault(ctx, e.identity(e.alice), id)
		}()
	}
	wg.Wait()

	list, err := e.addrs.List(ctx, e.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, defaultsOf(list))
}

func TestAddress_Update(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	a, err := e.addrs.Create(ctx, e.alice.ID, home(true))
	require.NoError(t, err)

	got, err := e.addrs.Update(ctx, e.identity(e.alice), a.ID, AddressInput{City: "Shelbyville"})
	require.NoError(t, err)
	assert.Equal(t, "Shelbyville", got.City)
	assert.Equal(t, "12 Baker Street", got.Address)
	assert.True(t, got.IsDefault)

	_, err = e.addrs.Update(ctx, e.identity(e.alice), a.ID, AddressInput{Type: "Castle"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = e.addrs.Update(ctx, e.identity(e.bob), a.ID, AddressInput{City: "Ogdenville"})
	assert.True(t, IsKind(err, KindForbidden))

	other, err := e.addrs.Create(ctx, e.alice.ID, home(false))
	require.NoError(t, err)
	yes := true
	_, err = e.addrs.Update(ctx, e.identity(e.alice), other.ID, AddressInput{IsDefault: &yes})
	require.NoError(t, err)
	list, err := e.addrs.List(ctx, e.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, defaultsOf(list))
	assert.Equal(t, other.ID, list[0].ID)
}

func TestAddress_Delete(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	a, err := e.addrs.Create(ctx, e.alice.ID, home(false))
	require.NoError(t, err)

	err = e.addrs.Delete(ctx, e.identity(e.bob), a.ID)
	assert.True(t, IsKind(err, KindForbidden))

	require.NoError(t, e.addrs.Delete(ctx, e.identity(e.alice), a.ID))

	err = e.addrs.Delete(ctx, e.identity(e.alice), a.ID)
	assert.True(t, IsKind(err, KindNotFound))

	_, err = e.addrs.SetDefault(ctx, e.identity(e.alice), a.ID)
	assert.True(t, IsKind(err, KindNotFound))
}
