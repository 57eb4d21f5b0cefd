package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joeblew999/plat-carto/internal/errdefs"
)

// LayerService manages stored layer specs, persisted as layers.json in the
// data directory.
type LayerService struct {
	dataDir string
	bus     *EventBus
	logger  *slog.Logger
	layers  map[string]LayerSpec
	mu      sync.RWMutex
}

// NewLayerService loads the layers stored in dataDir. A missing file starts
// empty; an unreadable one is logged and also starts empty. A nil bus
// disables events.
func NewLayerService(dataDir string, bus *EventBus, logger *slog.Logger) *LayerService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &LayerService{
		dataDir: dataDir,
		bus:     bus,
		logger:  logger,
		layers:  make(map[string]LayerSpec),
	}
	s.loadFromDisk()
	return s
}

// List returns all layers ordered by ID.
func (s *LayerService) List() []LayerSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]LayerSpec, 0, len(s.layers))
	for _, id := range s.ids() {
		result = append(result, s.layers[id])
	}
	return result
}

// Get returns a layer by ID.
func (s *LayerService) Get(id string) (LayerSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.layers[id]
	if !ok {
		return LayerSpec{}, &errdefs.NotFoundError{Entity: "layer", ID: id}
	}
	return layer, nil
}

// Create stores a new layer. The ID defaults to a slug of the name, or a
// random UUID when the name has no usable characters.
func (s *LayerService) Create(layer LayerSpec) (LayerSpec, error) {
	if err := validateSpec(layer); err != nil {
		return LayerSpec{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if layer.ID == "" {
		layer.ID = generateID(layer.Label())
	}
	if _, exists := s.layers[layer.ID]; exists {
		return LayerSpec{}, fmt.Errorf("%w: layer %q already exists", errdefs.ErrConflict, layer.ID)
	}

	s.layers[layer.ID] = layer
	if err := s.saveToDisk(); err != nil {
		delete(s.layers, layer.ID)
		return LayerSpec{}, err
	}
	s.publish(ActionCreated, layer.ID)
	return layer, nil
}

// Update replaces a layer by ID.
func (s *LayerService) Update(id string, layer LayerSpec) (LayerSpec, error) {
	if err := validateSpec(layer); err != nil {
		return LayerSpec{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.layers[id]
	if !exists {
		return LayerSpec{}, &errdefs.NotFoundError{Entity: "layer", ID: id}
	}

	layer.ID = id
	s.layers[id] = layer
	if err := s.saveToDisk(); err != nil {
		s.layers[id] = prev
		return LayerSpec{}, err
	}
	s.publish(ActionUpdated, id)
	return layer, nil
}

// Delete removes a layer by ID.
func (s *LayerService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.layers[id]
	if !exists {
		return &errdefs.NotFoundError{Entity: "layer", ID: id}
	}

	delete(s.layers, id)
	if err := s.saveToDisk(); err != nil {
		s.layers[id] = prev
		return err
	}
	s.publish(ActionDeleted, id)
	return nil
}

func (s *LayerService) ids() []string {
	ids := make([]string, 0, len(s.layers))
	for id := range s.layers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *LayerService) publish(action, id string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(Event{Resource: ResourceLayers, Action: action, ID: id})
}

// configFile returns the path to the layers config file.
func (s *LayerService) configFile() string {
	return filepath.Join(s.dataDir, "layers.json")
}

func (s *LayerService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("reading layers", "path", s.configFile(), "error", err)
		}
		return
	}

	var layers map[string]LayerSpec
	if err := json.Unmarshal(data, &layers); err != nil {
		s.logger.Warn("ignoring invalid layers file", "path", s.configFile(), "error", err)
		return
	}
	for id, l := range layers {
		l.ID = id
		s.layers[id] = l
	}
	s.logger.Debug("loaded layers", "count", len(s.layers))
}

func (s *LayerService) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	data, err := json.MarshalIndent(s.layers, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configFile(), data, 0o644)
}

// validateSpec checks what can be checked without opening the source.
func validateSpec(l LayerSpec) error {
	switch {
	case l.Source.File == "" && l.Source.Query == "":
		return errdefs.Invalid("layer source", "", "file", "query")
	case l.Source.File != "" && l.Source.Query != "":
		return fmt.Errorf("%w: layer source sets both file and query", errdefs.ErrValidation)
	}
	if l.ID != "" && generateID(l.ID) != l.ID {
		return errdefs.Invalid("layer id", l.ID)
	}
	return nil
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return uuid.NewString()
	}
	return result.String()
}
