package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type phoneFixture struct {
	Phone string `validate:"required,phone"`
}

func TestStruct_PhoneTag(t *testing.T) {
	valid := []string{
		"380971829100",
		"+380971829100",
		"+1 (415) 555-0100",
	}
	for _, p := range valid {
		assert.NoError(t, Struct(phoneFixture{Phone: p}), p)
	}

	invalid := []string{
		"",
		"123",
		"not-a-phone",
		"1234567890123456", // 16 digits
		"3809718291+00",    // misplaced plus
	}
	for _, p := range invalid {
		assert.Error(t, Struct(phoneFixture{Phone: p}), p)
	}
}
