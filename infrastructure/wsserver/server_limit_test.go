package wsserver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadLimitFor(t *testing.T) {
	req := require.New(t)

	req.Zero(readLimitFor(0))
	req.Zero(readLimitFor(-1))
	// 200 escaped surrogate pairs plus the envelope
	req.Equal(int64(200*12+1024), readLimitFor(200))
	req.Greater(readLimitFor(200), int64(len(`{"event":"chatMessage","data":{"content":""}}`)+200*len(`😀`)))
}
