package doctor

import (
	"context"
	"errors"
	"os"

	"github.com/hay-kot/criterio"

	"github.com/tkarvinen/moodlesync/internal/core/config"
)

// ConfigCheck validates the configuration and the output root.
type ConfigCheck struct {
	config     *config.Config
	configPath string
}

// NewConfigCheck creates a new configuration check.
func NewConfigCheck(cfg *config.Config, configPath string) *ConfigCheck {
	return &ConfigCheck{
		config:     cfg,
		configPath: configPath,
	}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if c.config == nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Config loaded",
			Status: StatusFail,
			Detail: "configuration not loaded",
		})
		return result
	}

	if _, err := os.Stat(c.configPath); err == nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Config file",
			Status: StatusPass,
			Detail: c.configPath,
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "Config file",
			Status: StatusPass,
			Detail: "not found, using defaults",
		})
	}

	if err := c.config.Validate(); err != nil {
		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				label := fe.Field
				if label == "" {
					label = "validation"
				}
				result.Items = append(result.Items, CheckItem{
					Label:  label,
					Status: StatusFail,
					Detail: fe.Err.Error(),
				})
			}
		} else {
			result.Items = append(result.Items, CheckItem{
				Label:  "validation",
				Status: StatusFail,
				Detail: err.Error(),
			})
		}
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "Config valid",
			Status: StatusPass,
		})
	}

	switch info, err := os.Stat(c.config.Root); {
	case os.IsNotExist(err):
		result.Items = append(result.Items, CheckItem{
			Label:  "Output root",
			Status: StatusWarn,
			Detail: "does not exist yet; created on first sync",
		})
	case err != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  "Output root",
			Status: StatusFail,
			Detail: err.Error(),
		})
	case !info.IsDir():
		result.Items = append(result.Items, CheckItem{
			Label:  "Output root",
			Status: StatusFail,
			Detail: c.config.Root + " is not a directory",
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "Output root",
			Status: StatusPass,
			Detail: c.config.Root,
		})
	}

	return result
}
