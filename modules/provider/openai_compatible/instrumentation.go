package openaicompat

import "go.opentelemetry.io/otel"

const scopeName = "github.com/flemzord/chatloop/modules/provider/openai_compatible"

var tracer = otel.Tracer(scopeName)
