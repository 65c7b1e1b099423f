package onboard

import _ "embed"

// Version is the release of the onboarding engine.
//
//go:embed VERSION
var Version string
