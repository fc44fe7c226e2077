package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

// descriptorFile is the on-disk shape of a descriptor file.
type descriptorFile struct {
	Entities []types.Descriptor `yaml:"entities"`
}

// ParseDescriptors decodes descriptors from YAML. Conditional validation
// rules cannot be expressed in YAML; rules loaded here always apply.
func ParseDescriptors(data []byte) ([]types.Descriptor, error) {
	var f descriptorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse descriptors: %w", err)
	}
	return f.Entities, nil
}

// LoadFile reads a descriptor file and returns base extended with its
// entities. Entities in the file replace same-named ones in base.
func LoadFile(base *Registry, path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptors: %w", err)
	}
	descs, err := ParseDescriptors(data)
	if err != nil {
		return nil, err
	}
	return base.With(descs...)
}
