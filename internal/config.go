package internal

import (
	"chat-relay/errors"
	"fmt"
	"time"
)

type Config struct {
	Host                  string        `env:"HOST,default=localhost"`
	Port                  int           `env:"PORT,default=8080"`
	GrpcPort              int           `env:"GRPC_PORT,default=8081"`
	LogLevel              string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath        string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath         string        `env:"BLUGE_FILEPATH,required=true"`
	ConnectionBufferSize  int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	PersistenceBufferSize int           `env:"PERSISTENCE_BUFFER_SIZE,default=1024"`
	SinkTimeout           time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval       time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval        time.Duration `env:"METRIC_INTERVAL,default=30s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	ShutdownTimeout       time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	MaxContentLength      int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	LimitMessages         *int          `env:"LIMIT_MESSAGES"`
	CensoredDir           string        `env:"CENSORED_DIR"`
	CharReplacement       string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) GrpcAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GrpcPort)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("%w: CHARACTER_REPLACEMENT got %q", errors.ErrInvalidCharacter, str)
	}
	return r[0], nil
}
