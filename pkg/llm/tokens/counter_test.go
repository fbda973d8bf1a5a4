package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
	assert.Equal(t, 1, Estimate("abc"))
	assert.Equal(t, 2, Estimate("abcdefgh"))
	assert.Equal(t, 1, Estimate("日本"))
}

func TestCounterEmpty(t *testing.T) {
	c := NewCounter("")
	assert.Equal(t, 0, c.Count(""))
}
