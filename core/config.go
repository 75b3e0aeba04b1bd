package core

import (
	"github.com/spf13/viper"
)

var Config *ToolConfig

type ToolConfig struct {
	Database struct {
		Files []string
	}
	Framelog struct {
		Bind   string
		Output string
	}
}

func LoadConfig(path string, name string) error {
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(path)
	viper.SetConfigName(name)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	conf := &ToolConfig{}
	if err := viper.Unmarshal(conf); err != nil {
		return err
	}

	Config = conf
	return nil
}
