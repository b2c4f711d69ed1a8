package ir

// Version constants for the backend AST encoding and the tool.
const (
	// IRVersion is the fingerprint encoding version.
	IRVersion = "1"

	// ToolVersion is the meta-where CLI version.
	ToolVersion = "0.1.0"
)
