package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitGeneral, ExitCode(cause))
	assert.Equal(t, ExitConfig, ExitCode(ConfigError("bad config", cause)))
	assert.Equal(t, ExitInputParse, ExitCode(InputParseError("bad ddl", cause)))
	assert.Equal(t, ExitDBConnect, ExitCode(DBConnectError("no db", cause)))
	assert.Equal(t, ExitCapacity, ExitCode(fmt.Errorf("wrapped: %w", CapacityError("too big", cause))))
}

func TestExitError_Message(t *testing.T) {
	err := InputParseError("parsing DDL", errors.New("missing parentheses"))
	assert.Equal(t, "parsing DDL: missing parentheses", err.Error())
	assert.ErrorIs(t, err, err.Err)

	assert.Equal(t, "plain", (&ExitError{Message: "plain"}).Error())
}
