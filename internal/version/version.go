package version

import "runtime"

// Set at build time:
//
//	go build -ldflags "-X github.com/MrSnakeDoc/jbmon/internal/version.Version=v0.3.0 ..."
var (
	Version   = "dev"             // ex: v0.3.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2026-10-18T09:12:00Z
	GoVersion = runtime.Version() // toolchain that built the binary
)
