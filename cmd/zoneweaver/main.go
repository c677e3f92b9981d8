// zoneweaver manages ACME DNS-01 challenge records in Zone.eu hosted DNS.
// It can be invoked per challenge from an ACME client hook, or run as a
// webhook server speaking the httpreq protocol.
package main

import "gitlab.bluewillows.net/root/zoneweaver/cmd/zoneweaver/commands"

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-08-31"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	commands.Execute(Version, BuildDate)
}
