package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanLabel(t *testing.T) {
	assert.Equal(t, "student_name", CleanLabel("Student Name"))
	assert.Equal(t, "date_of_birth", CleanLabel("  Date Of Birth "))
	assert.Equal(t, "pen", CleanLabel("PEN"))
}

func TestRestoreLabel(t *testing.T) {
	assert.Equal(t, "Student Name", RestoreLabel("student_name"))
	assert.Equal(t, "Dob", RestoreLabel("dob"))
}

func TestNAKeys(t *testing.T) {
	assert.Equal(t, "NA_7", UniqueNAKey(7))
	assert.Equal(t, "NA", NormalizeNAKey("NA_7"))
	assert.Equal(t, "NA", NormalizeNAKey("na_12"))
	assert.Equal(t, "12345678901", NormalizeNAKey("12345678901"))
	assert.Equal(t, "NA_", NormalizeNAKey("NA_"))
}
