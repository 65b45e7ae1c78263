package vectorutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/vector"
	"github.com/talentwire/interviewd/pkg/vector/qdrantvec"
	"github.com/talentwire/interviewd/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// Host and Port locate a remote provider (qdrant).
	Host string
	Port int

	// DBPath locates a local provider (sqlite).
	DBPath string

	Collection string
	Dimensions uint

	Logger *zap.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlite":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "qdrant":
		return qdrantvec.NewQdrantDriver(ctx, qdrantvec.Config{
			Host:       o.Host,
			Port:       o.Port,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
