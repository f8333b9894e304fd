package ports

import (
	"context"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// ModeOverrides is the content of a mode file: modes replacing or extending
// the built-in table, and built-in modes to drop.
type ModeOverrides struct {
	Family domain.Family
	Table  domain.ModeTable
	Remove []string
}

// ModeLoader reads mode definitions from an external source.
type ModeLoader interface {
	Load(ctx context.Context) (*ModeOverrides, error)
}
