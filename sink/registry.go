package sink

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/logging"
)

// ConfigValidator is implemented by the native attribute structs of sinks.
type ConfigValidator interface {
	Validate(path string) error
}

// A Create creates a sink from its native config.
type Create[ConfigT ConfigValidator] func(ctx context.Context, conf ConfigT, logger logging.Logger) (Sink, error)

// Registration describes how to build a sink of one type.
type Registration[ConfigT ConfigValidator] struct {
	Constructor Create[ConfigT]
}

type registration struct {
	construct func(ctx context.Context, conf config.SinkConfig, logger logging.Logger) (Sink, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[config.SinkType]registration{}
)

// Register registers the constructor of a sink type. Attributes are decoded into a fresh
// ConfigT and validated before the constructor runs.
func Register[ConfigT ConfigValidator](typ config.SinkType, reg Registration[ConfigT]) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, old := registry[typ]; old {
		panic(errors.Errorf("trying to register two sinks with same type: %q", typ))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for sink type: %q", typ))
	}
	registry[typ] = registration{
		construct: func(ctx context.Context, conf config.SinkConfig, logger logging.Logger) (Sink, error) {
			var native ConfigT
			if err := conf.DecodeAttributes(&native); err != nil {
				return nil, err
			}
			if err := native.Validate("sink.attributes"); err != nil {
				return nil, err
			}
			return reg.Constructor(ctx, native, logger)
		},
	}
}

// Deregister removes a previously registered sink type.
func Deregister(typ config.SinkType) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, typ)
}

// New builds the sink described by conf.
func New(ctx context.Context, conf config.SinkConfig, logger logging.Logger) (Sink, error) {
	registryMu.RLock()
	reg, ok := registry[conf.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("no sink registered for type %q", conf.Type)
	}
	return reg.construct(ctx, conf, logger.Sublogger(string(conf.Type)))
}
