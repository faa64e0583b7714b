// Package permission implements the daemon's pre-flight checks:
// membership in the "input" group, and the presence of at least one
// accessible keyboard-capable device.
package permission

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/domi413/typetrace-backend/internal/apperrors"
	"github.com/domi413/typetrace-backend/internal/applog"
)

const inputGroupName = "input"

// RequireInputGroup resolves the current user (process euid -> password
// database entry, mirroring lxd/daemon.go's user.LookupId use) and checks
// group membership: satisfied either by appearing in the "input" group's
// member list, or by having that group as a primary gid.
func RequireInputGroup(log *applog.Logger) error {
	u, err := user.LookupId(strconv.Itoa(os.Geteuid()))
	if err != nil {
		return apperrors.New(apperrors.KindSystem, "resolve current user: %v", err)
	}

	group, err := user.LookupGroup(inputGroupName)
	if err != nil {
		return apperrors.New(apperrors.KindSystem, "no %q group on this system: %v", inputGroupName, err)
	}

	if u.Gid == group.Gid {
		return nil
	}

	members, err := groupMembers(group.Name)
	if err != nil {
		return apperrors.New(apperrors.KindSystem, "list members of group %q: %v", inputGroupName, err)
	}

	for _, m := range members {
		if m == u.Username {
			return nil
		}
	}

	printRemediation(u.Username)
	return apperrors.New(apperrors.KindPermission, "user %q is not a member of the %q group", u.Username, inputGroupName)
}

// etcGroupPath is a var, not a const, so tests can point it at a fixture
// file instead of the real /etc/group.
var etcGroupPath = "/etc/group"

// groupMembers returns the member list of the named group by looking it up
// in the group database. os/user exposes no direct API for this, so the
// members are read from the canonical /etc/group record.
func groupMembers(name string) ([]string, error) {
	data, err := os.ReadFile(etcGroupPath)
	if err != nil {
		return nil, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) < 4 || fields[0] != name {
			continue
		}
		if fields[3] == "" {
			return nil, nil
		}
		return strings.Split(fields[3], ","), nil
	}

	return nil, fmt.Errorf("group %q not found in /etc/group", name)
}

// printRemediation prints the remediation message: the exact usermod
// command and the re-login requirement.
func printRemediation(username string) {
	fmt.Fprintf(os.Stderr, "Permission denied: user %q cannot access input devices.\n\n", username)
	fmt.Fprintf(os.Stderr, "Run the following command to grant access, then log out and back in:\n\n")
	fmt.Fprintf(os.Stderr, "    sudo usermod -a -G input %s\n\n", username)
	fmt.Fprintln(os.Stderr, "The group change only takes effect after a fresh login session.")
}

// AccessibleDevicesChecker is satisfied by internal/inputdevice's
// enumerator; kept as a narrow interface here so this package doesn't
// import the udev binding directly.
type AccessibleDevicesChecker interface {
	// HasAccessibleKeyboard enumerates the seat's input devices and
	// reports whether at least one was found and at least one of those
	// advertises the keyboard capability.
	HasAccessibleKeyboard() (bool, error)
}

// RequireAccessibleDevices implements the daemon's second pre-flight
// check: after seat assignment, at least one input device must be
// enumerated on the seat, and at least one of those devices must be a
// keyboard.
func RequireAccessibleDevices(checker AccessibleDevicesChecker) error {
	ok, err := checker.HasAccessibleKeyboard()
	if err != nil {
		return apperrors.New(apperrors.KindInputLayer, "device accessibility check: %v", err)
	}
	if !ok {
		return apperrors.New(apperrors.KindNoDevices, "no keyboard-capable input device is accessible on seat0")
	}
	return nil
}
