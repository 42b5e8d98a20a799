package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBranchHashDeterministic(t *testing.T) {
	h1 := BranchHash("https://github.com/acme/bot", "main")
	h2 := BranchHash("https://github.com/acme/bot", "main")
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)

	h3 := BranchHash("https://github.com/acme/bot", "dev")
	require.NotEqual(t, h1, h3)
}

func TestSupervisorName(t *testing.T) {
	h := BranchHash("https://github.com/acme/bot", "main")
	name := SupervisorName(h)
	require.Len(t, name, 16)
	require.Equal(t, h[:16], name)
}

func TestSupervisorNameShortInput(t *testing.T) {
	require.Equal(t, "abcd", SupervisorName("abcd"))
}

func TestIsAlreadyRegistered(t *testing.T) {
	require.True(t, isAlreadyRegistered(errors.New("execution reverted: AlreadyRegistered(0xdead)")))
	require.True(t, isAlreadyRegistered(errors.New("execution reverted: already registered")))
	require.False(t, isAlreadyRegistered(errors.New("execution reverted: insufficient funds")))
	require.False(t, isAlreadyRegistered(nil))
}

func TestClientUnavailableWithoutConfig(t *testing.T) {
	c := New(Config{})

	_, err := c.Lookup(context.Background(), BranchHash("https://github.com/acme/bot", "main"))
	require.Error(t, err)

	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
}

func TestClientUnavailableOnRegister(t *testing.T) {
	c := New(Config{})

	_, err := c.Register(context.Background(), BranchHash("https://github.com/acme/bot", "main"))
	require.Error(t, err)

	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("boom")

	te := &TransientError{Op: "dial", Err: base}
	require.ErrorIs(t, te, base)

	re := &RegisterError{Op: "register", Err: base}
	require.ErrorIs(t, re, base)

	ue := &UnavailableError{Reason: "not configured"}
	require.Contains(t, ue.Error(), "not configured")
}
