package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextDigest(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", TextDigest(""))
	assert.Equal(t, TextDigest("Skills: Go"), TextDigest("Skills: Go"))
	assert.NotEqual(t, TextDigest("Skills: Go"), TextDigest("Skills: go"))
	assert.Len(t, TextDigest("anything"), 64)
}
