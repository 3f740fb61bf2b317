package cli

import (
	"log/slog"

	"exitviz/internal/config"
	"exitviz/internal/models"
)

// loadClassifier applies destination aliases from the YAML config, if any.
func loadClassifier() *models.Classifier {
	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		slog.Warn("ignoring YAML config", "error", err)
	}
	return models.NewClassifier(yamlCfg.GetDestinationAliases())
}
