package config

import "os"

type scanConfig struct {
	Token      `yaml:"Token"`
	Preference `yaml:"Preference"`
}

type Token struct {
	IPInfo string `yaml:"IPInfo"`
}

type Preference struct {
	DataOrigin     string   `yaml:"DataOrigin"`
	Countries      []string `yaml:"Countries"`
	CountPerNation int      `yaml:"CountPerNation"`
	Ports          []int    `yaml:"Ports"`
	MaxConcurrent  int      `yaml:"MaxConcurrent"`
	TimeoutMS      int      `yaml:"TimeoutMS"`
	OutputDir      string   `yaml:"OutputDir"`
}

func configFromRunDir() (string, error) {
	return "./", nil
}

func configFromUserHomeDir() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return dir + "/.relayscan/", nil
}
