package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMD(t *testing.T) {
	assert.Equal(t, `john\_doe@example.com`, EscapeMD("john_doe@example.com"))
	assert.Equal(t, `\*bold\* \[link`, EscapeMD("*bold* [link"))
	assert.Equal(t, "plain text", EscapeMD("plain text"))
	assert.Equal(t, "", EscapeMD(""))
}
