package minio_storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarKey(t *testing.T) {
	key := AvatarKey("S1", "Me.PNG", "image/png")
	assert.True(t, strings.HasPrefix(key, "profiles/S1/avatar-"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.NotEqual(t, key, AvatarKey("S1", "Me.PNG", "image/png"))

	assert.True(t, strings.HasSuffix(AvatarKey("S1", "blob", ""), ".bin"))
}
