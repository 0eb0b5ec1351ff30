package entities

import (
	"fmt"
	"sort"
)

// CommandName names one abstract SCM operation.
type CommandName string

const (
	CommandAdd        CommandName = "add"
	CommandBlame      CommandName = "blame"
	CommandBranch     CommandName = "branch"
	CommandChangeLog  CommandName = "changelog"
	CommandCheckIn    CommandName = "checkin"
	CommandCheckOut   CommandName = "checkout"
	CommandDiff       CommandName = "diff"
	CommandEdit       CommandName = "edit"
	CommandExport     CommandName = "export"
	CommandInfo       CommandName = "info"
	CommandList       CommandName = "list"
	CommandLogin      CommandName = "login"
	CommandRemoteInfo CommandName = "remoteinfo"
	CommandRemove     CommandName = "remove"
	CommandStatus     CommandName = "status"
	CommandTag        CommandName = "tag"
	CommandUnedit     CommandName = "unedit"
	CommandUntag      CommandName = "untag"
	CommandUpdate     CommandName = "update"
)

// AllCommandNames returns the closed set of commands, sorted.
func AllCommandNames() []CommandName {
	names := []CommandName{
		CommandAdd, CommandBlame, CommandBranch, CommandChangeLog, CommandCheckIn,
		CommandCheckOut, CommandDiff, CommandEdit, CommandExport, CommandInfo,
		CommandList, CommandLogin, CommandRemoteInfo, CommandRemove, CommandStatus,
		CommandTag, CommandUnedit, CommandUntag, CommandUpdate,
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ParseCommandName resolves a command by name.
func ParseCommandName(name string) (CommandName, error) {
	for _, c := range AllCommandNames() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNoSuchCommand, name)
}
