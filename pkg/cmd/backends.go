package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yeisme/filedeck/pkg/internal/storage/db"
	"github.com/yeisme/filedeck/pkg/internal/storage/kv"
	"github.com/yeisme/filedeck/pkg/internal/storage/mq"
)

// backendGroup 描述一类可插拔存储后端，name 同时作为子命令名.
type backendGroup struct {
	name    string
	aliases []string
	short   string
	list    func() []string
}

var backendGroups = []backendGroup{
	{name: "db", short: "Metadata database backends", list: func() []string { return names(db.GetRegisteredDBTypes()) }},
	{name: "kv", aliases: []string{"keyvalue"}, short: "Key-value cache backends", list: func() []string { return names(kv.GetRegisteredKVTypes()) }},
	{name: "mq", aliases: []string{"messagequeue"}, short: "Message queue backends", list: func() []string { return names(mq.GetRegisteredTypes()) }},
}

func names[T ~string](types []T) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}

	return out
}

func printBackends(w io.Writer, g backendGroup) {
	fmt.Fprintf(w, "Registered %s types:\n", g.name)

	for _, n := range g.list() {
		fmt.Fprintln(w, "  - "+n)
	}
}

// registerBackendCommands 为每类后端注册 `<group> ls`，另有 `backends` 一次列出全部.
func registerBackendCommands() {
	all := &cobra.Command{
		Use:   "backends",
		Short: "List every registered storage backend",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, g := range backendGroups {
				printBackends(cmd.OutOrStdout(), g)
			}
		},
	}
	rootCmd.AddCommand(all)

	for _, g := range backendGroups {
		group := &cobra.Command{Use: g.name, Aliases: g.aliases, Short: g.short}
		group.AddCommand(&cobra.Command{
			Use:     "list",
			Short:   "list registered " + g.name + " types",
			Aliases: []string{"ls", "l"},
			Run: func(cmd *cobra.Command, _ []string) {
				printBackends(cmd.OutOrStdout(), g)
			},
		})
		rootCmd.AddCommand(group)
	}
}
