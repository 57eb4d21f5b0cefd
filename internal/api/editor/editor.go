// Package editor contains the Datastar SSE handlers of the style editor UI.
// Every route is tagged "editor" and left out of the REST link graph.
package editor

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/templates"
)

// SelectOptionData holds data for rendering a select option template.
type SelectOptionData struct {
	Value string
	Label string
}

// Register registers every editor route. Nil services skip their routes.
func Register(api huma.API, layers *service.LayerService, sources *service.SourceService, bus *service.EventBus, renderer *templates.Renderer) {
	if layers != nil {
		NewLayerHandler(layers, renderer).RegisterRoutes(api)
	}
	if sources != nil {
		NewSourceHandler(sources, renderer).RegisterRoutes(api)
	}
	NewVizHandler(renderer).RegisterRoutes(api)
	if bus != nil {
		NewEventHandler(bus, layers, renderer).RegisterRoutes(api)
	}
}
