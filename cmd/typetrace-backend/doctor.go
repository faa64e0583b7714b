package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/domi413/typetrace-backend/internal/applog"
	"github.com/domi413/typetrace-backend/internal/config"
	"github.com/domi413/typetrace-backend/internal/inputdevice"
	"github.com/domi413/typetrace-backend/internal/permission"
)

// newDoctorCmd builds a pre-flight diagnostic subcommand: it runs the
// same permission and device-access checks as eventhandler.New without
// opening any device or starting the capture loop, mirroring lxd-user's
// callhook-alongside-daemon subcommand split.
func newDoctorCmd(global *cmdGlobal) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check input-group membership and keyboard device access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(global)
		},
	}
}

func runDoctor(global *cmdGlobal) error {
	log := applog.New(global.flagDebug)

	if err := permission.RequireInputGroup(log); err != nil {
		return err
	}
	fmt.Println("ok: current user is a member of the input group")

	enumerator := inputdevice.NewEnumerator(config.DefaultSeat, log)
	if err := permission.RequireAccessibleDevices(enumerator); err != nil {
		return err
	}

	devices, err := enumerator.ListKeyboards()
	if err != nil {
		return err
	}

	count := 0
	for _, d := range devices {
		if d.IsKeyboard {
			count++
			fmt.Printf("ok: keyboard device %s\n", d.Devnode)
		}
	}
	fmt.Printf("ok: %d accessible keyboard device(s) on seat %q\n", count, config.DefaultSeat)

	return nil
}
