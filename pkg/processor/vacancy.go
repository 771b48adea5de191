package processor

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadVacancyFile reads a vacancy snapshot from a YAML file.
func LoadVacancyFile(path string) (*Vacancy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "processor: read vacancy file %s", path)
	}

	var v Vacancy
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrapf(err, "processor: parse vacancy file %s", path)
	}
	if v.Title == "" {
		return nil, eris.Errorf("processor: vacancy file %s has no title", path)
	}
	if v.Level == "" {
		v.Level = "mid"
	}
	return &v, nil
}
