package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
)

func TestTokenStore_Refresh(t *testing.T) {
	clock := fixedNow
	s := NewTokenStore(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, s.SaveRefresh(ctx, "u1", "a", time.Hour))
	require.NoError(t, s.SaveRefresh(ctx, "u2", "b", time.Hour))

	id, err := s.RefreshOwner(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.String())

	require.NoError(t, s.DeleteUserTokens(ctx, "u1"))
	_, err = s.RefreshOwner(ctx, "a")
	assert.ErrorIs(t, err, app_errors.ErrTokenNotFound)

	clock = clock.Add(2 * time.Hour)
	_, err = s.RefreshOwner(ctx, "b")
	assert.ErrorIs(t, err, app_errors.ErrTokenNotFound)
}

func TestTokenStore_LinkIsSingleUse(t *testing.T) {
	clock := fixedNow
	s := NewTokenStore(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, s.SaveLink(ctx, "t", "a@b.c", time.Minute))
	email, err := s.ConsumeLink(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", email)

	_, err = s.ConsumeLink(ctx, "t")
	assert.ErrorIs(t, err, app_errors.ErrLinkExpired)

	require.NoError(t, s.SaveLink(ctx, "late", "a@b.c", time.Minute))
	clock = clock.Add(time.Minute)
	_, err = s.ConsumeLink(ctx, "late")
	assert.ErrorIs(t, err, app_errors.ErrLinkExpired)
}
