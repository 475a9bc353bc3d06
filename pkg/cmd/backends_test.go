package cmd

import (
	"bytes"
	"strings"
	"testing"
)

// 测试 backends 命令列出所有已注册的后端类型.
func TestBackendsCommand(t *testing.T) {
	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"backends"})

	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Registered db types:", "Registered kv types:", "Registered mq types:", "  - memory"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
