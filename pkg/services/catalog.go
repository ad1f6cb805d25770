package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"OllamaDesk/pkg/cache"

	"go.uber.org/zap"
)

const (
	StatusNoModels       = "no_models"
	StatusSingleModel    = "single_model"
	StatusMultipleModels = "multiple_models"
	StatusFailed         = "error"

	ollamaNotRunning = "Ollama service is not running. Please start Ollama first."
	catalogCacheKey  = "tags"
)

// TagLister lists the models installed on the model server.
type TagLister interface {
	ListTags(ctx context.Context) ([]ModelTag, error)
}

type ModelListing struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Models  []ModelTag `json:"models"`
}

// ModelCatalog shapes the installed-model list for the model picker.
type ModelCatalog struct {
	client TagLister
	cache  *cache.Cache[[]ModelTag]
	ttl    time.Duration
	log    *zap.Logger
}

// NewModelCatalog caches successful listings for ttl; ttl<=0 disables caching.
func NewModelCatalog(client TagLister, ttl time.Duration, log *zap.Logger) *ModelCatalog {
	mc := &ModelCatalog{client: client, ttl: ttl, log: log.Named("models")}
	if ttl > 0 {
		mc.cache = cache.New[[]ModelTag](1)
	}
	return mc
}

// List never returns an error; failures are reported through Status.
func (m *ModelCatalog) List(ctx context.Context) ModelListing {
	tags, ok := m.cache.Get(catalogCacheKey)
	if !ok {
		var err error
		tags, err = m.client.ListTags(ctx)
		if err != nil {
			m.log.Warn("listing models failed", zap.Error(err))
			return ModelListing{Status: StatusFailed, Message: listingErrorMessage(err), Models: []ModelTag{}}
		}
		m.cache.Set(catalogCacheKey, tags, m.ttl)
	}
	return shapeListing(tags)
}

func shapeListing(tags []ModelTag) ModelListing {
	models := make([]ModelTag, 0, len(tags))
	models = append(models, tags...)
	switch len(models) {
	case 0:
		return ModelListing{Status: StatusNoModels, Message: "No Ollama models are installed", Models: models}
	case 1:
		return ModelListing{Status: StatusSingleModel, Message: fmt.Sprintf("Using model: %s", models[0].Name), Models: models}
	default:
		return ModelListing{Status: StatusMultipleModels, Message: "Please select a model to use", Models: models}
	}
}

func listingErrorMessage(err error) string {
	var te *TransportError
	if errors.As(err, &te) && te.ConnectionRefused() {
		return ollamaNotRunning
	}
	return err.Error()
}
