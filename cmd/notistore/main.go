// Notistore captures notification events into a local SQLite store,
// keeps a live status rollup of recent activity and sweeps out records
// that outlive the retention policy.
//
// Usage:
//
//	notistore run                 Capture JSON-lines events from stdin
//	notistore sweep               Run one retention sweep now
//	notistore list                List stored notifications
//	notistore clear               Delete every stored notification
//	notistore groups <command>    Manage app groups
//	notistore settings <command>  Show or change retention settings
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
