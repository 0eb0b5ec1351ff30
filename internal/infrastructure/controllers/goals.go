package controllers

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/scmforge/internal/domain/commands"
	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

const flagDateLayout = "2006-01-02"

// paramBuilder accumulates parameters from flags and keeps the first error.
type paramBuilder struct {
	cmd    *cobra.Command
	params *entities.CommandParameters
	err    error
}

func newParams(cmd *cobra.Command) *paramBuilder {
	return &paramBuilder{cmd: cmd, params: entities.NewCommandParameters()}
}

func (b *paramBuilder) set(p entities.CommandParameter, value any) *paramBuilder {
	if b.err == nil {
		b.err = b.params.Set(p, value)
	}
	return b
}

func (b *paramBuilder) str(p entities.CommandParameter, flag string) *paramBuilder {
	if value := stringFlag(b.cmd, flag); value != "" {
		b.set(p, value)
	}
	return b
}

func (b *paramBuilder) boolean(p entities.CommandParameter, flag string) *paramBuilder {
	if b.cmd.Flags().Changed(flag) {
		value, _ := b.cmd.Flags().GetBool(flag)
		b.set(p, value)
	}
	return b
}

func (b *paramBuilder) integer(p entities.CommandParameter, flag string) *paramBuilder {
	if value, _ := b.cmd.Flags().GetInt(flag); value > 0 {
		b.set(p, value)
	}
	return b
}

func (b *paramBuilder) date(p entities.CommandParameter, flag string) *paramBuilder {
	raw := stringFlag(b.cmd, flag)
	if raw == "" || b.err != nil {
		return b
	}
	parsed, err := time.ParseInLocation(flagDateLayout, raw, time.UTC)
	if err != nil {
		parsed, err = entities.ParseChangeSetDate(raw, "")
	}
	if err != nil {
		b.err = fmt.Errorf("--%s: %w", flag, err)
		return b
	}
	return b.set(p, parsed)
}

// version reads a version name flag and its companion type flag.
func (b *paramBuilder) version(p entities.CommandParameter, flag, typeFlag string) *paramBuilder {
	name := stringFlag(b.cmd, flag)
	if name == "" || b.err != nil {
		return b
	}
	version, err := entities.NewScmVersion(stringFlag(b.cmd, typeFlag), name)
	if err != nil {
		b.err = fmt.Errorf("--%s: %w", typeFlag, err)
		return b
	}
	return b.set(p, version)
}

func (b *paramBuilder) build() (*entities.CommandParameters, error) {
	return b.params, b.err
}

func versionFlags(cmd *cobra.Command, name, typeName, what string) {
	cmd.Flags().String(name, "", what)
	cmd.Flags().String(typeName, "revision", "Type of --"+name+" (branch, tag or revision)")
}

func messageFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("message", "m", "", "Commit or operation message")
}

// goals is the table of SCM goals exposed on the command line.
func goals() []goal {
	return []goal{
		{
			use:     "add [files...]",
			short:   "Schedule files for addition",
			command: entities.CommandAdd, filesFromArgs: true,
			flags: func(cmd *cobra.Command) {
				messageFlag(cmd)
				cmd.Flags().Bool("force", false, "Add ignored files too")
				cmd.Flags().Bool("binary", false, "Mark the files as binary")
			},
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).str(entities.ParamMessage, "message").
					boolean(entities.ParamForceAdd, "force").
					boolean(entities.ParamBinary, "binary").build()
			},
		},
		{
			use:   "blame <file>",
			short: "Show who last changed each line of a file",
			args:  cobra.ExactArgs(1), command: entities.CommandBlame, filesFromArgs: true,
			flags: func(cmd *cobra.Command) {
				cmd.Flags().Bool("ignore-whitespace", false, "Ignore whitespace changes")
			},
			params: func(cmd *cobra.Command, args []string) (*entities.CommandParameters, error) {
				return newParams(cmd).set(entities.ParamFile, args[0]).
					boolean(entities.ParamIgnoreWhitespace, "ignore-whitespace").build()
			},
		},
		{
			use:   "branch <name>",
			short: "Create a branch from the working copy",
			args:  cobra.ExactArgs(1), command: entities.CommandBranch,
			flags: func(cmd *cobra.Command) {
				messageFlag(cmd)
				cmd.Flags().Bool("remote", false, "Create the branch directly in the remote repository")
				cmd.Flags().Bool("pin-externals", false, "Pin external definitions to their revision")
			},
			params: func(cmd *cobra.Command, args []string) (*entities.CommandParameters, error) {
				remote, _ := cmd.Flags().GetBool("remote")
				pin, _ := cmd.Flags().GetBool("pin-externals")
				return newParams(cmd).set(entities.ParamBranchName, args[0]).
					set(entities.ParamScmBranchParameters, entities.BranchParameters{
						Message: stringFlag(cmd, "message"), RemoteBranch: remote, PinExternal: pin,
					}).build()
			},
		},
		{
			use:     "changelog",
			short:   "Show the change sets of a date or version range",
			command: entities.CommandChangeLog,
			flags: func(cmd *cobra.Command) {
				cmd.Flags().String("start-date", "", "First day (YYYY-MM-DD) of the range")
				cmd.Flags().String("end-date", "", "Last day (YYYY-MM-DD) of the range")
				cmd.Flags().Int("limit", 0, "Maximum number of change sets")
				cmd.Flags().String("date-pattern", "", "Layout used to parse dates in the tool output")
				versionFlags(cmd, "start-version", "start-version-type", "First version of the range")
				versionFlags(cmd, "end-version", "end-version-type", "Last version of the range")
			},
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).date(entities.ParamStartDate, "start-date").
					date(entities.ParamEndDate, "end-date").
					integer(entities.ParamNumChangeSets, "limit").
					str(entities.ParamChangeLogDatePattern, "date-pattern").
					version(entities.ParamStartScmVersion, "start-version", "start-version-type").
					version(entities.ParamEndScmVersion, "end-version", "end-version-type").build()
			},
		},
		{
			use:     "checkin [files...]",
			short:   "Commit the working copy changes",
			command: entities.CommandCheckIn, filesFromArgs: true,
			flags: func(cmd *cobra.Command) {
				messageFlag(cmd)
				versionFlags(cmd, "scm-version", "scm-version-type", "Branch to commit to")
			},
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).str(entities.ParamMessage, "message").
					version(entities.ParamScmVersion, "scm-version", "scm-version-type").build()
			},
		},
		{
			use:     "checkout",
			short:   "Check the project out into --dir",
			command: entities.CommandCheckOut,
			flags: func(cmd *cobra.Command) {
				versionFlags(cmd, "scm-version", "scm-version-type", "Version to check out")
				cmd.Flags().Bool("shallow", false, "Fetch only the requested version")
				cmd.Flags().Bool("recursive", true, "Check out subdirectories too")
			},
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).version(entities.ParamScmVersion, "scm-version", "scm-version-type").
					boolean(entities.ParamShallow, "shallow").
					boolean(entities.ParamRecursive, "recursive").build()
			},
		},
		{
			use:     "diff [files...]",
			short:   "Show differences between two versions or against the working copy",
			command: entities.CommandDiff, filesFromArgs: true,
			flags: func(cmd *cobra.Command) {
				versionFlags(cmd, "start-version", "start-version-type", "Older version")
				versionFlags(cmd, "end-version", "end-version-type", "Newer version (default: working copy)")
				cmd.Flags().Bool("ignore-whitespace", false, "Ignore whitespace changes")
			},
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).version(entities.ParamStartScmVersion, "start-version", "start-version-type").
					version(entities.ParamEndScmVersion, "end-version", "end-version-type").
					boolean(entities.ParamIgnoreWhitespace, "ignore-whitespace").build()
			},
		},
		{
			use:     "edit <files...>",
			short:   "Open files for editing (lock or check out)",
			args:    cobra.MinimumNArgs(1),
			command: entities.CommandEdit, filesFromArgs: true,
		},
		{
			use:     "export",
			short:   "Export a clean copy of the project without metadata",
			command: entities.CommandExport,
			flags: func(cmd *cobra.Command) {
				cmd.Flags().String("output-directory", "", "Directory receiving the exported files")
				versionFlags(cmd, "scm-version", "scm-version-type", "Version to export")
			},
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).str(entities.ParamOutputDirectory, "output-directory").
					version(entities.ParamScmVersion, "scm-version", "scm-version-type").build()
			},
		},
		{
			use:     "info [files...]",
			short:   "Show repository information about files",
			command: entities.CommandInfo, filesFromArgs: true,
		},
		{
			use:     "list [files...]",
			short:   "List the files of the repository",
			command: entities.CommandList, filesFromArgs: true,
			flags: func(cmd *cobra.Command) {
				cmd.Flags().Bool("recursive", false, "List subdirectories too")
				versionFlags(cmd, "scm-version", "scm-version-type", "Version to list")
			},
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).boolean(entities.ParamRecursive, "recursive").
					version(entities.ParamScmVersion, "scm-version", "scm-version-type").build()
			},
		},
		{
			use:     "login",
			short:   "Authenticate against the repository server",
			command: entities.CommandLogin,
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).str(entities.ParamUser, "username").
					str(entities.ParamPassword, "password").build()
			},
		},
		{
			use:     "remoteinfo",
			short:   "List the branches and tags of the remote repository",
			command: entities.CommandRemoteInfo,
		},
		{
			use:     "remove <files...>",
			short:   "Schedule files for removal",
			args:    cobra.MinimumNArgs(1),
			command: entities.CommandRemove, filesFromArgs: true,
			flags:   messageFlag,
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).str(entities.ParamMessage, "message").build()
			},
		},
		{
			use:     "status [files...]",
			short:   "Show the working copy changes",
			command: entities.CommandStatus, filesFromArgs: true,
		},
		{
			use:   "tag <name>",
			short: "Tag the working copy",
			args:  cobra.ExactArgs(1), command: entities.CommandTag,
			flags: func(cmd *cobra.Command) {
				messageFlag(cmd)
				cmd.Flags().Bool("remote", false, "Create the tag directly in the remote repository")
				cmd.Flags().Bool("pin-externals", false, "Pin external definitions to their revision")
			},
			params: func(cmd *cobra.Command, args []string) (*entities.CommandParameters, error) {
				remote, _ := cmd.Flags().GetBool("remote")
				pin, _ := cmd.Flags().GetBool("pin-externals")
				return newParams(cmd).set(entities.ParamTagName, args[0]).
					set(entities.ParamScmTagParameters, entities.TagParameters{
						Message: stringFlag(cmd, "message"), RemoteTag: remote, PinExternal: pin,
					}).build()
			},
		},
		{
			use:     "unedit <files...>",
			short:   "Revert files opened for editing",
			args:    cobra.MinimumNArgs(1),
			command: entities.CommandUnedit, filesFromArgs: true,
		},
		{
			use:   "untag <name>",
			short: "Delete a tag",
			args:  cobra.ExactArgs(1), command: entities.CommandUntag,
			params: func(cmd *cobra.Command, args []string) (*entities.CommandParameters, error) {
				return newParams(cmd).set(entities.ParamTagName, args[0]).build()
			},
		},
		{
			use:     "update [files...]",
			short:   "Bring the working copy up to date",
			command: entities.CommandUpdate, filesFromArgs: true,
			flags: func(cmd *cobra.Command) {
				versionFlags(cmd, "scm-version", "scm-version-type", "Version to update to")
				cmd.Flags().Bool("changelog", false, "Report the change sets brought in by the update")
			},
			params: func(cmd *cobra.Command, _ []string) (*entities.CommandParameters, error) {
				return newParams(cmd).version(entities.ParamScmVersion, "scm-version", "scm-version-type").
					boolean(entities.ParamRunChangeLogWithUpdate, "changelog").build()
			},
		},
	}
}

// NewGoalControllers creates one controller per SCM goal.
func NewGoalControllers(newManager commands.ManagerFactory) []*GoalController {
	table := goals()
	controllers := make([]*GoalController, 0, len(table))
	for _, g := range table {
		controllers = append(controllers, newGoalController(g, newManager))
	}
	return controllers
}
