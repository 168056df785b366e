package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetCode(t *testing.T) {
	code, hash, err := GenerateResetCode()
	require.NoError(t, err)
	assert.Len(t, code, 64, "hex of 32 bytes = 64 chars")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), code)

	// 摘要与明文不同且可复算
	assert.NotEqual(t, code, hash)
	assert.Equal(t, hash, HashResetCode(code))

	code2, _, err := GenerateResetCode()
	require.NoError(t, err)
	assert.NotEqual(t, code, code2)
}

func TestPasswordReset_IsExpired(t *testing.T) {
	now := time.Now()

	p := &PasswordReset{ExpiresAt: now.Add(-time.Hour)}
	assert.True(t, p.IsExpired(now))

	p2 := &PasswordReset{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, p2.IsExpired(now))
}

func TestPasswordReset_IsValid(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Minute)

	// 有效
	assert.True(t, (&PasswordReset{ExpiresAt: now.Add(time.Hour)}).IsValid(now))
	// 无效：已使用
	assert.False(t, (&PasswordReset{UsedAt: &used, ExpiresAt: now.Add(time.Hour)}).IsValid(now))
	// 无效：已过期
	assert.False(t, (&PasswordReset{ExpiresAt: now.Add(-time.Hour)}).IsValid(now))
}
