package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRemotePath(t *testing.T) {
	cases := map[string]string{
		"/":              "/",
		"//":             "/",
		"/home//user///": "/home/user",
		"/a/b":           "/a/b",
		"":               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePath(in, true), in)
	}
}

func TestRemoteCursorNavigation(t *testing.T) {
	c := NewPathCursor("/home/user", true)
	assert.Equal(t, "/home/user", c.Path())

	c.Enter("docs")
	assert.Equal(t, "/home/user/docs", c.Path())
	assert.Equal(t, "/home/user/docs/a.txt", c.Child("a.txt"))

	c.Back()
	c.Back()
	c.Back()
	assert.Equal(t, "/", c.Path())
	c.Back()
	assert.Equal(t, "/", c.Path())

	c.Set("/var//log/")
	assert.Equal(t, "/var/log", c.Path())
	c.Enter("..")
	assert.Equal(t, "/var", c.Path())

	c.Set("   ")
	assert.Equal(t, "/var", c.Path())

	c.Home()
	assert.Equal(t, "/home/user", c.Path())

	c.SetHome("/root")
	c.Home()
	assert.Equal(t, "/root", c.Path())
}

func TestEmptyHomeDefaultsToRoot(t *testing.T) {
	c := NewPathCursor("", true)
	assert.Equal(t, "/", c.Path())
}
