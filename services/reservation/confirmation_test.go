package reservation

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminConfirmationCode(t *testing.T) {
	now := time.Date(2026, 7, 9, 15, 0, 0, 0, time.UTC)

	code, err := AdminConfirmationCode("silva", "maria", now)
	require.NoError(t, err)

	// day+month prefix, upper-cased names, four random digits
	assert.Regexp(t, regexp.MustCompile(`^0907-SILVA MARIA-\d{4}$`), code)
}

func TestAdminConfirmationCodeTrimsNames(t *testing.T) {
	now := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)

	code, err := AdminConfirmationCode("  Oliveira ", " João", now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(code, "0201-OLIVEIRA JOÃO-"))
}

func TestTravelerConfirmationCode(t *testing.T) {
	now := time.Date(2026, 7, 9, 15, 0, 0, 0, time.UTC)

	code, err := TravelerConfirmationCode(now)
	require.NoError(t, err)

	parts := strings.Split(code, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "RSV", parts[0])

	ts, err := strconv.ParseInt(strings.ToLower(parts[1]), 36, 64)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), ts)

	require.Len(t, parts[2], 4)
	for _, c := range parts[2] {
		assert.Contains(t, travelerCodeChars, string(c), "suffix uses the unambiguous alphabet only")
	}
}

func TestTravelerConfirmationCodesDiffer(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := TravelerConfirmationCode(now)
		require.NoError(t, err)
		seen[code] = true
	}
	// 32^4 suffixes make a collision across 20 draws effectively impossible
	assert.Greater(t, len(seen), 1)
}
