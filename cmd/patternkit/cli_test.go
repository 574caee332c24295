package main

import (
	"bytes"
	"context"
	"strings"

	"github.com/praetorian-inc/patternkit/pkg/scanner"
	"github.com/spf13/cobra"
)

// resetFlags restores every package-level flag to its default.
func resetFlags() {
	patterns = nil
	presetNames = nil
	setName = ""
	presetsPath = ""
	engineName = "regexp2"
	verbose = false
	colorMode = "never"

	firstGroup = 0
	allGroup = 0
	indexStart = 0
	indicesStart = 0
	countStart = 0

	scanFormat = "human"
	scanInclude = ""
	scanExclude = ""
	scanTolerant = false
	scanWorkers = 1
	scanContext = scanner.DefaultSnippetContext
	scanIncludeHidden = false
	scanMaxFileSize = 10 * 1024 * 1024
	scanDB = ""

	reportDB = "patternkit.db"
	reportFormat = "human"

	presetsFormat = "table"
}

// newTestCmd returns a command writing to buf and reading stdin.
func newTestCmd(buf *bytes.Buffer, stdin string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader(stdin))
	return cmd
}
