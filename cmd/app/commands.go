package main

import (
	"github.com/urfave/cli/v3"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getAuthCommands()...)
	cmds = append(cmds, getAttendanceCommands()...)
	cmds = append(cmds, getAdminCommands()...)
	cmds = append(cmds, getSystemCommands(version)...)
	return cmds
}
