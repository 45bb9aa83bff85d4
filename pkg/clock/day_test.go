package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartOfDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	now := time.Date(2024, 3, 10, 20, 30, 0, 0, time.UTC)

	require.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), StartOfDay(now, nil))
	// 20:30 UTC is already 03:30 on March 11th in UTC+7.
	require.Equal(t, time.Date(2024, 3, 10, 17, 0, 0, 0, time.UTC), StartOfDay(now, jakarta))
}

func TestDate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	now := time.Date(2024, 3, 10, 20, 30, 0, 0, time.UTC)

	require.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Date(now, time.UTC))
	require.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Date(now, jakarta))
}
