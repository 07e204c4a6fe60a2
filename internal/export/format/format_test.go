package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatter(t *testing.T) {
	t.Run("formatting is deterministic", func(t *testing.T) {
		f := New("en", "USD")
		first := f.Money(1234.5)
		second := f.Money(1234.5)
		assert.Equal(t, first, second)
		assert.Contains(t, first, "1,234.50")
	})

	t.Run("unknown locale and currency fall back", func(t *testing.T) {
		f := New("not-a-locale", "XYZ123")
		assert.NotEmpty(t, f.Money(10))
	})

	t.Run("zero time renders empty", func(t *testing.T) {
		f := New("en", "USD")
		assert.Empty(t, f.Date(time.Time{}))
		assert.Empty(t, f.DateTime(time.Time{}))
	})

	t.Run("dates render to fixed layouts", func(t *testing.T) {
		f := New("en", "USD")
		ts := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
		assert.Equal(t, "2026-03-15", f.Date(ts))
		assert.Equal(t, "2026-03-15 09:30", f.DateTime(ts))
	})
}
