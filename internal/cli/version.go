package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jaa/songmeta/internal/audio"
	"github.com/jaa/songmeta/internal/prompt"
	"github.com/spf13/cobra"
)

func newVersionCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version, build and prompt template metadata",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(app)
		},
	}
}

type versionInfo struct {
	Version        string   `json:"version"`
	Commit         string   `json:"commit"`
	BuildDate      string   `json:"build_date"`
	PromptTemplate string   `json:"prompt_template"`
	Formats        []string `json:"formats"`
}

func currentVersion(build BuildInfo) versionInfo {
	info := versionInfo{
		Version:        build.Version,
		Commit:         build.Commit,
		BuildDate:      build.Date,
		PromptTemplate: prompt.Version,
		Formats:        audio.SupportedExtensions(),
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}

func printVersion(app *AppContext) {
	info := currentVersion(app.Build)
	if app.Opts.JSON {
		encoded, _ := json.Marshal(info)
		fmt.Fprintln(app.IO.Out, string(encoded))
		return
	}
	fmt.Fprintf(app.IO.Out, "songmeta version %s\ncommit: %s\nbuild_date: %s\nprompt_template: v%s\n",
		info.Version, info.Commit, info.BuildDate, info.PromptTemplate)
}
