package entities

// CommandParameter identifies an optional or required argument slot of a command.
// The set is closed: new parameters are added only by extending the constants below.
type CommandParameter int

const (
	ParamMessage CommandParameter = iota
	ParamBranchName
	ParamTagName
	ParamStartDate
	ParamEndDate
	ParamNumChangeSets
	ParamStartScmVersion
	ParamEndScmVersion
	ParamChangeLogDatePattern
	ParamScmVersion
	ParamFile
	ParamFiles
	ParamOutputFile
	ParamOutputDirectory
	ParamRunChangeLogWithUpdate
	ParamScmTagParameters
	ParamScmBranchParameters
	ParamScmShortRevisionLength
	ParamForceAdd
	ParamBinary
	ParamRecursive
	ParamShallow
	ParamIgnoreWhitespace
	ParamUser
	ParamPassword
	paramSentinel // keep last
)

//nolint:gochecknoglobals // closed lookup table
var commandParameterNames = [...]string{
	ParamMessage:                "message",
	ParamBranchName:             "branchName",
	ParamTagName:                "tagName",
	ParamStartDate:              "startDate",
	ParamEndDate:                "endDate",
	ParamNumChangeSets:          "numChangeSets",
	ParamStartScmVersion:        "startScmVersion",
	ParamEndScmVersion:          "endScmVersion",
	ParamChangeLogDatePattern:   "changelogDatePattern",
	ParamScmVersion:             "scmVersion",
	ParamFile:                   "file",
	ParamFiles:                  "files",
	ParamOutputFile:             "outputFile",
	ParamOutputDirectory:        "outputDirectory",
	ParamRunChangeLogWithUpdate: "run_changelog_with_update",
	ParamScmTagParameters:       "ScmTagParameters",
	ParamScmBranchParameters:    "ScmBranchParameters",
	ParamScmShortRevisionLength: "shortRevisionLength",
	ParamForceAdd:               "forceAdd",
	ParamBinary:                 "binary",
	ParamRecursive:              "recursive",
	ParamShallow:                "shallow",
	ParamIgnoreWhitespace:       "ignoreWhitespace",
	ParamUser:                   "user",
	ParamPassword:               "password",
}

// String returns the stable name of the parameter.
func (p CommandParameter) String() string {
	if !p.IsValid() {
		return "unknown"
	}
	return commandParameterNames[p]
}

// IsValid reports whether p is a member of the enumeration.
func (p CommandParameter) IsValid() bool {
	return p >= ParamMessage && p < paramSentinel
}

// AllCommandParameters returns every parameter of the enumeration in declaration order.
func AllCommandParameters() []CommandParameter {
	all := make([]CommandParameter, 0, int(paramSentinel))
	for p := ParamMessage; p < paramSentinel; p++ {
		all = append(all, p)
	}
	return all
}
