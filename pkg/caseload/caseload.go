// Package caseload is the public entry point for the entity-access layer.
// A client is a types.Session bound to the shelter descriptor table; attach
// it to an API, then work with entities by type name:
//
//	c := caseload.NewClient()
//	if err := c.Attach(types.Config{BaseURL: "https://api.example.org/api"}); err != nil {
//		return err
//	}
//	defer c.Detach()
//	jenjang, err := c.Entity("jenjang")
package caseload

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/caseload/internal/client"
	"github.com/mesh-intelligence/caseload/internal/registry"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

// Version is the release version of the module.
const Version = "0.3.0"

// Option configures a client.
type Option = client.Option

// WithLogger sets the logger used by every component.
func WithLogger(l *zap.Logger) Option { return client.WithLogger(l) }

// WithDescriptors adds descriptors to the default table, replacing
// same-named entity types.
func WithDescriptors(descs ...types.Descriptor) (Option, error) {
	r, err := registry.Default().With(descs...)
	if err != nil {
		return nil, err
	}
	return client.WithRegistry(r), nil
}

// NewClient returns a detached session over the default shelter descriptors.
func NewClient(opts ...Option) types.Session {
	return client.New(opts...)
}
