package graphics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tcgis/marketarea/internal/graphics"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
