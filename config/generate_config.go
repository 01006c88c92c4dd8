package config

import (
	"os"

	"github.com/spf13/viper"
)

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Generate writes the current (default) configuration into the user config
// directory so later runs pick it up from there.
func Generate() error {
	path, err := configFromUserHomeDir()
	if err != nil {
		path, err = configFromRunDir()
		if err != nil {
			return err
		}
	}
	if exist, _ := pathExists(path); !exist {
		if err := os.Mkdir(path, os.ModePerm); err != nil {
			return err
		}
	}
	return viper.WriteConfigAs(path + "relayscan_config.yaml")
}
