package nn

import (
	"fmt"

	"github.com/diffuse-ml/diffuse/internal/serialization"
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// Save writes a module's parameters to a .dfsn snapshot file.
//
// modelType is a free-form tag recorded in the header (e.g. "MLP",
// "DenoisingCNN"); metadata may be nil.
//
// The snapshot records parameter values only. Load requires a module built
// with the same architecture so the state dictionaries line up.
func Save[B tensor.Backend](m Module[B], path, modelType string, metadata map[string]string) error {
	header := serialization.Header{
		ModelType: modelType,
		Metadata:  metadata,
	}
	if err := serialization.WriteSnapshot(path, m.StateDict(), header); err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", modelType, err)
	}
	return nil
}

// Load reads a .dfsn snapshot and copies its parameters into m, which must
// have the same architecture the snapshot was saved from. Returns the
// snapshot header.
//
// A loaded module is functionally identical to the one saved: it produces
// the same outputs for the same inputs.
func Load[B tensor.Backend](path string, m Module[B]) (*serialization.Header, error) {
	header, stateDict, err := serialization.ReadSnapshot(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if err := m.LoadStateDict(stateDict); err != nil {
		return nil, fmt.Errorf("failed to load state dict from %s: %w", path, err)
	}
	return header, nil
}
