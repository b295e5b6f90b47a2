package emission

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"declgen/internal/generation"
)

const (
	NamingLocal     = "local"
	NamingQualified = "qualified"
)

type Settings struct {
	Template      string
	RootNamespace string
	Naming        string
	Extension     string
}

// Emitter renders resolved entities and stores one artifact per entity.
type Emitter struct {
	renderer Renderer
	store    Store
	mapper   *TypeMapper
	settings Settings
	logger   *zap.SugaredLogger
}

var _ generation.Emitter = (*Emitter)(nil)

func NewEmitter(renderer Renderer, store Store, mapper *TypeMapper, settings Settings, logger *zap.SugaredLogger) *Emitter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Emitter{
		renderer: renderer,
		store:    store,
		mapper:   mapper,
		settings: settings,
		logger:   logger,
	}
}

func (emitter *Emitter) Emit(entity generation.ResolvedEntity) error {
	model := BuildModel(entity, emitter.mapper, emitter.settings.RootNamespace)

	content, err := emitter.renderer.Render(emitter.settings.Template, model)
	if err != nil {
		return errors.Wrapf(err, "could not render %s", entity.QualifiedName)
	}

	name := emitter.ArtifactName(entity)
	if err := emitter.store.Save(name, content); err != nil {
		return errors.Wrapf(err, "could not save %s", entity.QualifiedName)
	}

	emitter.logger.Debugw("Artifact written", "entity", entity.QualifiedName, "artifact", name)
	return nil
}

// ArtifactName is the store key of an entity. Local naming lets entities
// with the same local name in different namespaces overwrite each other.
func (emitter *Emitter) ArtifactName(entity generation.ResolvedEntity) string {
	name := entity.LocalName
	if emitter.settings.Naming == NamingQualified {
		name = entity.QualifiedName
	}
	return name + emitter.settings.Extension
}
