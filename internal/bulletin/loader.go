package bulletin

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"boletin-iglesia/internal/model"
)

// Origin identifies which source produced a loaded bulletin.
type Origin string

const (
	OriginEmbedded Origin = "embedded"
	OriginRemote   Origin = "remote"
	OriginFallback Origin = "fallback"
)

// Outcome is the result of a load. Record is always usable.
type Outcome struct {
	Record  model.Bulletin
	Origin  Origin
	Message string
	IsError bool

	// Err is the remote failure that caused a fallback, if any.
	Err error
}

// Loader picks the bulletin from the best available source: the page's
// embedded JSON, then the remote source, then the fallback record.
type Loader struct {
	embedded Source
	remote   Source
	fallback model.Bulletin
	logger   *zap.Logger
}

// NewLoader creates a Loader. embedded and remote may be nil.
func NewLoader(embedded, remote Source, fallback model.Bulletin, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		embedded: embedded,
		remote:   remote,
		fallback: fallback,
		logger:   logger,
	}
}

// Load never fails; when every dynamic source fails it returns the fallback record.
func (l *Loader) Load(ctx context.Context) Outcome {
	if l.embedded != nil {
		b, err := l.embedded.Fetch(ctx)
		switch {
		case err == nil:
			return Outcome{
				Record:  b,
				Origin:  OriginEmbedded,
				Message: "Datos cargados desde " + l.embedded.Name(),
			}
		case errors.Is(err, ErrNoEmbeddedData):
			l.logger.Debug("no embedded bulletin data")
		default:
			l.logger.Warn("embedded JSON parse error", zap.Error(err))
		}
	}

	remoteName := "datos remotos"
	if l.remote != nil {
		remoteName = l.remote.Name()
		b, err := l.remote.Fetch(ctx)
		if err == nil {
			return Outcome{
				Record:  b,
				Origin:  OriginRemote,
				Message: "Datos cargados desde " + remoteName,
			}
		}
		l.logger.Warn("remote bulletin unavailable, using fallback",
			zap.String("source", remoteName),
			zap.Error(err))
		return l.fallbackOutcome(remoteName, err)
	}

	return l.fallbackOutcome(remoteName, nil)
}

func (l *Loader) fallbackOutcome(remoteName string, err error) Outcome {
	return Outcome{
		Record:  l.fallback,
		Origin:  OriginFallback,
		Message: "No se pudo cargar " + remoteName + " — usando fallback",
		IsError: true,
		Err:     err,
	}
}
