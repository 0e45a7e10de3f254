package hfinference

import "go.opentelemetry.io/otel"

const scopeName = "github.com/flemzord/chatloop/modules/provider/hfinference"

var tracer = otel.Tracer(scopeName)
