// Package banner prints the startup banner.
package banner

import "fmt"

const art = `
 _   _                _ _                _
| |_(_)_ __ ___   ___| (_)_ __   ___  __| |
| __| | '_ ' _ \ / _ \ | | '_ \ / _ \/ _' |
| |_| | | | | | |  __/ | | | | |  __/ (_| |
 \__|_|_| |_| |_|\___|_|_|_| |_|\___|\__,_|
`

// Print writes the banner with the bound address and version.
func Print(version, listen string) {
	fmt.Print(art)
	fmt.Printf("  timelined %s\n", version)
	fmt.Printf("  listening on http://%s\n", listen)
	fmt.Printf("  api:      http://%s/v1\n", listen)
	fmt.Printf("  metrics:  http://%s/metrics\n", listen)
	fmt.Printf("  docs:     http://%s/docs/\n\n", listen)
}
