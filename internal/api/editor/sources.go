package editor

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/templates"
)

type SourceHandler struct {
	humastar.Handler
	sourceService *service.SourceService
}

func NewSourceHandler(sourceService *service.SourceService, renderer *templates.Renderer) *SourceHandler {
	return &SourceHandler{
		Handler:       humastar.Handler{Renderer: renderer},
		sourceService: sourceService,
	}
}

func (h *SourceHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/sources", h.ListSources, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/sources/upload", h.Upload, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/sources/{filename}", h.Delete, huma.OperationTags("editor"))
}

type SourceUploadInput struct {
	RawBody multipart.Form
}

func (h *SourceHandler) Upload(ctx context.Context, input *SourceUploadInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		files := input.RawBody.File["file"]
		if len(files) == 0 {
			sse.Error("No file provided")
			return
		}

		header := files[0]
		file, err := header.Open()
		if err != nil {
			sse.Error("Failed to open uploaded file")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			sse.Error("Failed to read uploaded file")
			return
		}
		saved, err := h.sourceService.Save(header.Filename, data)
		if err != nil {
			sse.Error(err.Error())
			return
		}

		sse.Success("File uploaded: " + saved.Name)
		h.patchLists(sse)
	}), nil
}

type SourceDeleteInput struct {
	Filename string `path:"filename" doc:"Source filename to delete"`
}

func (h *SourceHandler) Delete(ctx context.Context, input *SourceDeleteInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.sourceService.Delete(input.Filename); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Success("Deleted: " + input.Filename)
		h.patchLists(sse)
	}), nil
}

func (h *SourceHandler) ListSources(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(h.patchLists), nil
}

func (h *SourceHandler) patchLists(sse humastar.SSE) {
	sources, err := h.sourceService.List()
	if err != nil {
		sse.Error("Failed to list sources: " + err.Error())
		return
	}
	items := make([]any, len(sources))
	for i, s := range sources {
		items[i] = s
	}
	sse.Patch(h.RenderList("source-card", items, "No source files", "Upload a GeoJSON or GeoParquet file."), "#source-list")
	sse.Patch(h.renderSourceSelect(sources), "#source-select")
}

func (h *SourceHandler) renderSourceSelect(sources []service.SourceFile) string {
	var buf bytes.Buffer
	h.Renderer.RenderToBuffer(&buf, "select-option", SelectOptionData{Label: "-- Select a source file --"})
	for _, s := range sources {
		h.Renderer.RenderToBuffer(&buf, "select-option", SelectOptionData{
			Value: s.Name, Label: s.Name + " (" + s.Size + ")",
		})
	}
	return buf.String()
}
