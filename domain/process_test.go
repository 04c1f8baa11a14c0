package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProcessState(t *testing.T) {
	req := require.New(t)

	req.Equal(ProcessRunning, ParseProcessState("R"))
	req.Equal(ProcessSleeping, ParseProcessState("S"))
	req.Equal(ProcessZombie, ParseProcessState("Z"))
	req.Equal(ProcessUnknown, ParseProcessState("running"))
	req.Equal(ProcessUnknown, ParseProcessState(""))
}
