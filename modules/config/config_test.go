package config_test

import (
	"context"
	"os"
	"testing"

	"staking-timetravel/modules/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conf struct {
	A uint   `validate:"gte=1"`
	B string `validate:"required"`
}

func TestBasic(t *testing.T) {
	dir := t.TempDir()
	c := config.New(conf{1, "hi"}, &dir)
	require.NoError(t, c.Init())
	_, err := c.Start().Await(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Loaded())
	assert.Equal(t, conf{1, "hi"}, c.Get())

	_, err = os.Stat(c.FilePath())
	assert.NoError(t, err)
	assert.NoError(t, c.Stop())
}

func TestUpdatePersists(t *testing.T) {
	dir := t.TempDir()
	c := config.New(conf{1, "hi"}, &dir)
	require.NoError(t, c.Init())
	require.NoError(t, c.Update(func(v *conf) {
		v.A = 7
	}))

	reloaded := config.New(conf{1, "hi"}, &dir)
	require.NoError(t, reloaded.Init())
	assert.Equal(t, uint(7), reloaded.Get().A)
}

func TestUpdateRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	c := config.New(conf{1, "hi"}, &dir)
	require.NoError(t, c.Init())

	err := c.Update(func(v *conf) {
		v.B = ""
	})
	assert.Error(t, err)
	assert.Equal(t, "hi", c.Get().B)
}
