package export

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/gridsignal/loraplan/internal/model"
)

// YAML renders the full plan result as a YAML document.
func YAML(result *model.PlanResult) ([]byte, error) {
	doc, err := yaml.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "export: marshal yaml")
	}
	return doc, nil
}
