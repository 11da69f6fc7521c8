package omnibase

// Version is the engine release, reported by the CLI and the server surfaces.
const Version = "0.4.0"
