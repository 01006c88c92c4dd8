package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestReadDefaults(t *testing.T) {
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldwd) })
	viper.Reset()
	InitConfig()

	c, err := Read()
	assert.NoError(t, err)
	assert.NotEmpty(t, c.Countries)
	assert.Greater(t, c.MaxConcurrent, 0)
	assert.Greater(t, c.TimeoutMS, 0)
	assert.NotEmpty(t, c.Ports)
	assert.NotEmpty(t, c.OutputDir)
}
