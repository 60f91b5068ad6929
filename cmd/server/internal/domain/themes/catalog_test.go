package themes

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysMenuOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"executive", "corporate", "modern", "minimal", "product", "holiday", "intern"},
		Keys())
}

func TestResolveFallsBack(t *testing.T) {
	assert.Equal(t, "modern", Resolve("Modern").Key)
	assert.Equal(t, FallbackKey, Resolve("does-not-exist").Key)
	assert.Equal(t, FallbackKey, Resolve("").Key)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"1", "executive", false},
		{"7", "intern", false},
		{" holiday ", "holiday", false},
		{"MINIMAL", "minimal", false},
		{"0", "", true},
		{"8", "", true},
		{"neon", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Select(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownTheme))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMenuListsEveryTheme(t *testing.T) {
	menu := Menu()
	for i, key := range Keys() {
		assert.Contains(t, menu, key)
		theme, ok := ByMenuPosition(i + 1)
		require.True(t, ok)
		assert.Equal(t, key, theme.Key)
	}
	assert.True(t, strings.HasSuffix(menu, "Type the theme name or number:"))
}
