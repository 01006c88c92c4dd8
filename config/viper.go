package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

func InitConfig() {
	viper.SetConfigName("relayscan_config")
	viper.SetConfigType("yaml")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" && homeDir != "" {
		xdgConfigHome = filepath.Join(homeDir, ".config")
	}

	configPaths := []string{
		"/etc/relayscan",
		"/usr/local/etc/relayscan",
	}
	if xdgConfigHome != "" {
		configPaths = append(configPaths, filepath.Join(xdgConfigHome, "relayscan"))
	}
	if homeDir != "" {
		configPaths = append(configPaths, filepath.Join(homeDir, ".relayscan"), homeDir)
	}
	configPaths = append(configPaths, ".")

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetDefault("dataOrigin", "ip-api.com")
	viper.SetDefault("countries", []string{"US", "JP", "SG", "HK"})
	viper.SetDefault("countPerNation", 5)
	viper.SetDefault("ports", []int{443})
	viper.SetDefault("maxConcurrent", 30)
	viper.SetDefault("timeoutMS", 5000)
	viper.SetDefault("outputDir", "ip_results")
	viper.SetDefault("mmdbPath", "./country.mmdb")
	viper.SetDefault("token.ipinfo", "")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("no config file found, writing relayscan_config.yaml with defaults to the run directory")
		if err := viper.SafeWriteConfigAs("./relayscan_config.yaml"); err != nil {
			return
		}
	}

	_ = viper.ReadInConfig()
}
