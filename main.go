package main

import (
	"os"

	"photocull-api/cmd"
)

// ビルド時に -ldflags で設定される
var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
