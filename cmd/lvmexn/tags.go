package main

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/lvm/exn"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List exception tags and their sub-codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := describeTags()
		out, err := getOutput(infos, formatTags(infos), viper.GetString("output"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

type tagInfo struct {
	Name     string   `json:"name"`
	Value    int      `json:"value"`
	Async    bool     `json:"async"`
	SubCodes []string `json:"sub_codes,omitempty"`
}

func describeTags() []tagInfo {
	var infos []tagInfo
	for _, t := range exn.Tags() {
		info := tagInfo{Name: t.String(), Value: int(t), Async: t.IsAsync()}
		for _, c := range exn.SubCodes(t) {
			info.SubCodes = append(info.SubCodes, c.String())
		}
		infos = append(infos, info)
	}
	return infos
}

func formatTags(infos []tagInfo) string {
	var sb strings.Builder
	for i, info := range infos {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%2d %s", info.Value, info.Name)
		if info.Async {
			sb.WriteString(" (async)")
		}
		for _, c := range info.SubCodes {
			fmt.Fprintf(&sb, "\n     %s", c)
		}
	}
	return sb.String()
}
