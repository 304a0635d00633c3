// Package config loads network architecture specs from YAML and builds the
// corresponding modules.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/diffuse-ml/diffuse/internal/nn"
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// Network type names accepted in a spec.
const (
	TypeMLP          = "mlp"
	TypeDenoisingMLP = "denoising_mlp"
	TypeDenoisingCNN = "denoising_cnn"
)

// NetworkSpec is a declarative network description:
//
//	type: denoising_mlp
//	seed: 0
//	action_dim: 3
//	obs_dim: 4
//	num_steps: 5
//	hidden: [32, 32]
//
// MLPs use layer_sizes instead of the denoiser fields; denoising CNNs use
// channels instead of hidden.
type NetworkSpec struct {
	Type string `yaml:"type"`
	Seed int64  `yaml:"seed"`

	// MLP.
	LayerSizes []int `yaml:"layer_sizes,omitempty"`

	// Denoisers.
	ActionDim int   `yaml:"action_dim,omitempty"`
	ObsDim    int   `yaml:"obs_dim,omitempty"`
	NumSteps  int   `yaml:"num_steps,omitempty"`
	Hidden    []int `yaml:"hidden,omitempty"`
	Channels  []int `yaml:"channels,omitempty"`
}

// Parse decodes and validates a YAML network spec. Unknown fields are
// rejected.
func Parse(data []byte) (*NetworkSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec NetworkSpec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to parse network spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// LoadFile reads and parses a YAML network spec from disk.
func LoadFile(path string) (*NetworkSpec, error) {
	//nolint:gosec // G304: the spec path is caller-chosen by design
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network spec: %w", err)
	}
	return Parse(data)
}

// Validate checks the spec for the fields its type requires.
func (s *NetworkSpec) Validate() error {
	switch s.Type {
	case TypeMLP:
		if len(s.LayerSizes) < 2 {
			return fmt.Errorf("network spec: mlp needs at least 2 layer_sizes, got %v", s.LayerSizes)
		}
		for _, size := range s.LayerSizes {
			if size <= 0 {
				return fmt.Errorf("network spec: layer_sizes must be positive, got %v", s.LayerSizes)
			}
		}
	case TypeDenoisingMLP, TypeDenoisingCNN:
		if s.ActionDim <= 0 {
			return fmt.Errorf("network spec: action_dim must be positive, got %d", s.ActionDim)
		}
		if s.ObsDim <= 0 {
			return fmt.Errorf("network spec: obs_dim must be positive, got %d", s.ObsDim)
		}
		if s.NumSteps <= 0 {
			return fmt.Errorf("network spec: num_steps must be positive, got %d", s.NumSteps)
		}
		if s.Type == TypeDenoisingCNN {
			for _, ch := range s.Channels {
				if ch <= 0 {
					return fmt.Errorf("network spec: channels must be positive, got %v", s.Channels)
				}
			}
		} else {
			for _, h := range s.Hidden {
				if h <= 0 {
					return fmt.Errorf("network spec: hidden sizes must be positive, got %v", s.Hidden)
				}
			}
		}
	case "":
		return fmt.Errorf("network spec: type is required")
	default:
		return fmt.Errorf("network spec: unknown type %q", s.Type)
	}
	return nil
}

// Build constructs the module the spec describes, seeded from spec.Seed.
func Build[B tensor.Backend](spec *NetworkSpec, backend B) (nn.Module[B], error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	rng := nn.NewRNG(spec.Seed)
	switch spec.Type {
	case TypeMLP:
		return nn.NewMLP(spec.LayerSizes, rng, backend), nil
	case TypeDenoisingMLP:
		return nn.NewDenoisingMLP(spec.ActionDim, spec.ObsDim, spec.NumSteps, spec.Hidden, rng, backend), nil
	case TypeDenoisingCNN:
		return nn.NewDenoisingCNN(spec.ActionDim, spec.ObsDim, spec.NumSteps, spec.Channels, rng, backend), nil
	default:
		return nil, fmt.Errorf("network spec: unknown type %q", spec.Type)
	}
}
