package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateCode_CollisionRetry 驗證抽到已佔用代碼時會重抽，
// 既有房間不被覆蓋，且最終代碼仍為標準 6 位格式
func TestGenerateCode_CollisionRetry(t *testing.T) {
	reg := NewRegistry()

	// 確定性抽取序列：第三次創建會連續命中兩個已佔用的代碼
	draws := []string{"AAAAAA", "BBBBBB", "AAAAAA", "BBBBBB", "CCCCCC"}
	i := 0
	reg.newCode = func() string {
		code := draws[i]
		i++
		return code
	}

	first, err := reg.Create("conn_a")
	require.NoError(t, err)
	require.Equal(t, "AAAAAA", first.Code)

	second, err := reg.Create("conn_b")
	require.NoError(t, err)
	require.Equal(t, "BBBBBB", second.Code)

	third, err := reg.Create("conn_c")
	require.NoError(t, err)
	assert.Equal(t, "CCCCCC", third.Code)
	assert.Len(t, third.Code, codeLength)

	// 碰撞的代碼仍指向原房間
	got, ok := reg.Lookup("AAAAAA")
	require.True(t, ok)
	assert.Same(t, first, got)

	got, ok = reg.Lookup("BBBBBB")
	require.True(t, ok)
	assert.Same(t, second, got)

	assert.Equal(t, 3, reg.Count())
}
