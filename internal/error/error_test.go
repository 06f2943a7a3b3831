package error

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"os permission", os.ErrPermission, PermissionDenied},
		{"wrapped not exist", fmt.Errorf("open: %w", os.ErrNotExist), NotFound},
		{"exists", os.ErrExist, AlreadyExists},
		{"sftp permission", &sftp.StatusError{Code: uint32(sftp.ErrSSHFxPermissionDenied)}, PermissionDenied},
		{"sftp no such file", &sftp.StatusError{Code: uint32(sftp.ErrSSHFxNoSuchFile)}, NotFound},
		{"sudo text", errors.New("tee: /etc/hosts: Permission denied"), PermissionDenied},
		{"unknown", errors.New("connection reset by peer"), TransportError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify("op failed", tc.err)
			assert.Equal(t, tc.want, TypeOf(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestClassifyKeepsAppError(t *testing.T) {
	orig := New(NotConnected, "not connected", nil)
	assert.Same(t, orig, Classify("list", orig))
	assert.Nil(t, Classify("list", nil))
}

func TestIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("list /root: %w", New(PermissionDenied, "denied", os.ErrPermission))
	assert.True(t, Is(err, PermissionDenied))
	assert.False(t, Is(err, NotFound))
	assert.False(t, Is(nil, TransportError))
	assert.Equal(t, "denied: permission denied", errors.Unwrap(err).Error())
}

func TestTypeStrings(t *testing.T) {
	assert.Equal(t, "not_connected", NotConnected.String())
	assert.Equal(t, "permission_denied", PermissionDenied.String())
	assert.Equal(t, "transport_error", TransportError.String())
	assert.Equal(t, "host_key_unknown", HostKeyUnknown.String())
}
