package tracing

import (
	"context"
	"testing"

	"github.com/yeisme/filedeck/pkg/configs"
)

// 测试未启用时不安装 provider，StartSpan 仍可用.
func TestDisabled(t *testing.T) {
	if err := InitTracer(configs.TracingConfig{Enabled: false}); err != nil {
		t.Fatalf("InitTracer: %v", err)
	}

	_, span := StartSpan(context.Background(), "noop")
	span.End()

	if err := ShutdownTracer(context.Background()); err != nil {
		t.Fatalf("ShutdownTracer: %v", err)
	}
}

// 测试未知导出器报错.
func TestUnknownExporter(t *testing.T) {
	if _, err := newExporter(context.Background(), configs.TracingConfig{ExporterType: "jaeger"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

// 测试资源标签按键排序.
func TestResourceLabels(t *testing.T) {
	kv := resourceLabels(map[string]string{"zone": "b", "env": "prod", "app": "filedeck"})

	if len(kv) != 3 || kv[0].Key != "app" || kv[1].Key != "env" || kv[2].Key != "zone" {
		t.Fatalf("labels = %v", kv)
	}
}
