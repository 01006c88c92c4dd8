package config

import (
	"github.com/spf13/viper"
)

// Read materializes the viper state into a scanConfig snapshot.
func Read() (*scanConfig, error) {
	c := &scanConfig{
		Token: Token{
			IPInfo: viper.GetString("token.ipinfo"),
		},
		Preference: Preference{
			DataOrigin:     viper.GetString("dataOrigin"),
			Countries:      viper.GetStringSlice("countries"),
			CountPerNation: viper.GetInt("countPerNation"),
			Ports:          viper.GetIntSlice("ports"),
			MaxConcurrent:  viper.GetInt("maxConcurrent"),
			TimeoutMS:      viper.GetInt("timeoutMS"),
			OutputDir:      viper.GetString("outputDir"),
		},
	}
	return c, nil
}
