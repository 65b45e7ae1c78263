package main

import (
	"os"

	interviewdcmder "github.com/talentwire/interviewd/cmd/interviewd"
)

func main() {
	cmd := interviewdcmder.NewInterviewdCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
