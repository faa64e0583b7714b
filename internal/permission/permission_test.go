package permission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupMembers(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "group")
	content := "wheel:x:10:root,alice\ninput:x:44:alice,bob\nempty:x:999:\n"
	require.NoError(t, os.WriteFile(fixture, []byte(content), 0o644))

	orig := etcGroupPath
	etcGroupPath = fixture
	defer func() { etcGroupPath = orig }()

	cases := []struct {
		group string
		want  []string
	}{
		{"input", []string{"alice", "bob"}},
		{"wheel", []string{"root", "alice"}},
		{"empty", nil},
	}

	for _, c := range cases {
		t.Run(c.group, func(t *testing.T) {
			members, err := groupMembers(c.group)
			require.NoError(t, err)
			assert.Equal(t, c.want, members)
		})
	}
}

func TestGroupMembersNotFound(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "group")
	require.NoError(t, os.WriteFile(fixture, []byte("wheel:x:10:root\n"), 0o644))

	orig := etcGroupPath
	etcGroupPath = fixture
	defer func() { etcGroupPath = orig }()

	_, err := groupMembers("input")
	assert.Error(t, err)
}

type fakeAccessibilityChecker struct {
	ok  bool
	err error
}

func (f fakeAccessibilityChecker) HasAccessibleKeyboard() (bool, error) {
	return f.ok, f.err
}

func TestRequireAccessibleDevices(t *testing.T) {
	t.Run("accessible", func(t *testing.T) {
		err := RequireAccessibleDevices(fakeAccessibilityChecker{ok: true})
		assert.NoError(t, err)
	})

	t.Run("none accessible", func(t *testing.T) {
		err := RequireAccessibleDevices(fakeAccessibilityChecker{ok: false})
		require.Error(t, err)
	})
}
