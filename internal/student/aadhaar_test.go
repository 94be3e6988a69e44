package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAadhaar(t *testing.T) {
	t.Run("accepts checksum-valid numbers", func(t *testing.T) {
		for _, n := range []string{"234567890124", "123456789010", "999999999999"} {
			assert.True(t, ValidAadhaar(n), "number %s", n)
		}
	})

	t.Run("rejects bad checksums", func(t *testing.T) {
		for _, n := range []string{"234567890125", "123456789011", "123456789012"} {
			assert.False(t, ValidAadhaar(n), "number %s", n)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, n := range []string{"", "NA", "23456789012", "2345678901244", "23456789012x"} {
			assert.False(t, ValidAadhaar(n), "number %q", n)
		}
	})
}
