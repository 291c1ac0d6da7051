package cfg

import (
	"reflect"

	"github.com/caarlos0/env/v11"

	"github.com/henderiw/xtable/pkg/xtable"
)

type Config struct {
	Environment string       `env:"ENVIRONMENT"         envDefault:"local"`
	Port        uint16       `env:"XTABLE_PORT"         envDefault:"5010"`
	IDRange     xtable.Limit `env:"XTABLE_ID_RANGE"     envDefault:"0-4294967295"`
	BufferLimit int          `env:"XTABLE_BUFFER_LIMIT" envDefault:"4096"`
	MaxBodySize int64        `env:"XTABLE_MAX_BODY"     envDefault:"1048576"`
	Debug       bool         `env:"XTABLE_DEBUG"        envDefault:"false"`
}

func (c Config) IsLocal() bool {
	return c.Environment == "local"
}

func Parse() (Config, error) {
	return env.ParseAsWithOptions[Config](env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(xtable.Limit{}): parseLimit,
		},
	})
}

func parseLimit(v string) (any, error) {
	return xtable.ParseLimit(v)
}
