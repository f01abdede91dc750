package constants

import (
	"time"
)

// Workflow output constants
const (
	WorkflowName = "CI"
	DefaultShell = "bash"
	RunnerImage  = "ubuntu-latest"

	// GeneratedHeader is written at the top of every emitted workflow.
	GeneratedHeader = "Generated by j2g from a Jenkinsfile. Review before committing."
)

// Triggers lists the workflow events in emission order.
var Triggers = []string{"push", "pull_request"}

// Setup actions for recognized tools
const (
	SetupNodeAction   = "actions/setup-node@v3"
	SetupJavaAction   = "actions/setup-java@v3"
	SetupPythonAction = "actions/setup-python@v2"
)

// Matrix heuristics. Stage names are matched case-sensitively.
const (
	TestStageMarker  = "Test"
	BuildStageMarker = "Build"

	PythonMatrixStep = "echo Running in Python version ${{ matrix.python }}"
	DockerDetected   = "echo Docker step detected!"
	SecretEchoPrefix = "echo Using secret: "
)

var (
	TestMatrixOS          = []string{"ubuntu-latest", "windows-latest"}
	TestMatrixNodeVersion = []string{"12", "14", "16"}
	BuildMatrixPython     = []string{"3.7", "3.8", "3.9"}
)

// Secret name markers (case-sensitive substrings).
var SecretMarkers = []string{"KEY", "SECRET", "PASSWORD"}

// Engine limits
const (
	DefaultMaxBlocks     = 4096
	DefaultMaxInputBytes = 1 << 20
)

// Server defaults
const (
	DefaultServerAddr     = ":8080"
	DefaultMaxUploadBytes = 10 << 20
	DefaultRequestTimeout = 30 * time.Second
	DefaultTokenTTL       = time.Hour

	ZipArchiveName   = "github-actions-results.zip"
	OutputFileSuffix = "-github-actions.yml"
	DefaultYAMLName  = "github-actions.yml"
)

// Store defaults
const (
	DefaultSQLitePath        = "j2g.db"
	DefaultPostgresPort      = 5432
	DefaultPostgresSSLMode   = "disable"
	DefaultConversionsTable  = "conversions"
	ConversionsTableSuffix   = "_conversions"
	DefaultHistoryLimit      = 20
	DefaultPostgresMaxConns  = 10
	DefaultPostgresIdleConns = 2
	DefaultMaxConnLifetime   = 5 * time.Minute
	DefaultMaxIdleTime       = 1 * time.Minute
	DefaultSQLiteLifetime    = 10 * time.Minute
	DefaultSQLiteIdleTime    = 5 * time.Minute
)

// Remote client defaults
const (
	DefaultRemoteServer  = "http://localhost:8080"
	DefaultRemoteTimeout = 60 * time.Second
	DefaultRemoteRetries = 2
)
